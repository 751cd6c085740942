package ledger

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/accounts"
	"ledger-service/internal/models"
)

type emptyChartRepo struct{}

func (emptyChartRepo) GetAccountsByCompany(companyID string) ([]*models.Account, error) {
	return nil, nil
}

func (emptyChartRepo) GetAccountByID(id int64) (*models.Account, error) { return nil, nil }

func (emptyChartRepo) InsertAccount(tx *sql.Tx, account *models.Account) error { return nil }

func (emptyChartRepo) UpdateAccount(tx *sql.Tx, account *models.Account) error { return nil }

func TestDocumentPostingSkipsWhenAccountsNotConfigured(t *testing.T) {
	s := &Service{directory: accounts.NewDirectory(emptyChartRepo{})}
	input := DocumentInput{
		CompanyID: "co-1",
		Number:    "INV-001",
		Subtotal:  decimal.RequireFromString("100.00"),
		TaxTotal:  decimal.RequireFromString("10.00"),
		Total:     decimal.RequireFromString("110.00"),
		Date:      time.Now(),
	}

	for name, post := range map[string]func(DocumentInput) (*PostingResult, error){
		"invoice": s.PostInvoiceEntry,
		"bill":    s.PostBillEntry,
		"receipt": s.PostReceiptEntry,
		"payment": s.PostPaymentEntry,
	} {
		result, err := post(input)
		require.NoError(t, err, name)
		assert.True(t, result.Skipped, name)
		assert.NotEmpty(t, result.Reason, name)
		assert.Nil(t, result.Ref, name)
	}
}
