package accounts

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/models"
)

type fakeAccountRepo struct {
	accounts map[string][]*models.Account
	calls    int
	err      error
}

func (f *fakeAccountRepo) GetAccountsByCompany(companyID string) ([]*models.Account, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts[companyID], nil
}

func (f *fakeAccountRepo) GetAccountByID(id int64) (*models.Account, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAccountRepo) InsertAccount(tx *sql.Tx, account *models.Account) error {
	return errors.New("not implemented")
}

func (f *fakeAccountRepo) UpdateAccount(tx *sql.Tx, account *models.Account) error {
	return errors.New("not implemented")
}

func chart() map[string][]*models.Account {
	return map[string][]*models.Account{
		"co-1": {
			{ID: 1, CompanyID: "co-1", Code: "1000", Subtype: models.SubtypeCash, IsActive: true},
			{ID: 2, CompanyID: "co-1", Code: "1100", Subtype: models.SubtypeAccountsReceivable, IsActive: false},
			{ID: 3, CompanyID: "co-1", Code: "1101", Subtype: models.SubtypeAccountsReceivable, IsActive: true},
		},
		"co-2": {
			{ID: 9, CompanyID: "co-2", Code: "1000", Subtype: models.SubtypeCash, IsActive: true},
		},
	}
}

func TestAccountsCachesPerCompany(t *testing.T) {
	repo := &fakeAccountRepo{accounts: chart()}
	d := NewDirectory(repo)

	first, err := d.Accounts("co-1")
	require.NoError(t, err)
	require.Len(t, first, 3)

	_, err = d.Accounts("co-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	_, err = d.Accounts("co-2")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestInvalidateDropsOnlyThatCompany(t *testing.T) {
	repo := &fakeAccountRepo{accounts: chart()}
	d := NewDirectory(repo)

	_, _ = d.Accounts("co-1")
	_, _ = d.Accounts("co-2")
	require.Equal(t, 2, repo.calls)

	d.Invalidate("co-1")

	_, _ = d.Accounts("co-2")
	assert.Equal(t, 2, repo.calls)

	_, _ = d.Accounts("co-1")
	assert.Equal(t, 3, repo.calls)
}

func TestGetReturnsNilForUnknownAccount(t *testing.T) {
	d := NewDirectory(&fakeAccountRepo{accounts: chart()})

	a, err := d.Get("co-1", 3)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "1101", a.Code)

	a, err = d.Get("co-1", 42)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestFindBySubtypeSkipsInactive(t *testing.T) {
	d := NewDirectory(&fakeAccountRepo{accounts: chart()})

	a, err := d.FindBySubtype("co-1", models.SubtypeAccountsReceivable)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, int64(3), a.ID)

	a, err = d.FindBySubtype("co-1", models.SubtypeSalesRevenue)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAccountsPropagatesRepoError(t *testing.T) {
	repo := &fakeAccountRepo{err: errors.New("db down")}
	d := NewDirectory(repo)

	_, err := d.Accounts("co-1")
	assert.Error(t, err)
}
