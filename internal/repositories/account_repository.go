package repositories

import (
	"database/sql"
	"errors"
	"time"

	"ledger-service/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type AccountRepository interface {
	GetAccountsByCompany(companyID string) ([]*models.Account, error)
	GetAccountByID(id int64) (*models.Account, error)
	InsertAccount(tx *sql.Tx, account *models.Account) error
	UpdateAccount(tx *sql.Tx, account *models.Account) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetAccountsByCompany(companyID string) ([]*models.Account, error) {
	query := `
		SELECT id, company_id, code, name, account_type, account_subtype,
		       is_active, created_at, updated_at
		FROM accounts
		WHERE company_id = ?
		ORDER BY code
	`
	rows, err := r.db.Query(query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a := &models.Account{}
		err := rows.Scan(
			&a.ID,
			&a.CompanyID,
			&a.Code,
			&a.Name,
			&a.Type,
			&a.Subtype,
			&a.IsActive,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *accountRepository) GetAccountByID(id int64) (*models.Account, error) {
	a := &models.Account{}
	query := `
		SELECT id, company_id, code, name, account_type, account_subtype,
		       is_active, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`
	err := r.db.QueryRow(query, id).Scan(
		&a.ID,
		&a.CompanyID,
		&a.Code,
		&a.Name,
		&a.Type,
		&a.Subtype,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *accountRepository) InsertAccount(tx *sql.Tx, account *models.Account) error {
	query := `
		INSERT INTO accounts (
			company_id, code, name, account_type, account_subtype, is_active
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := tx.Exec(query,
		account.CompanyID,
		account.Code,
		account.Name,
		account.Type,
		account.Subtype,
		account.IsActive,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	account.ID = id
	return nil
}

func (r *accountRepository) UpdateAccount(tx *sql.Tx, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = ?,
		    account_subtype = ?,
		    is_active = ?,
		    updated_at = ?
		WHERE id = ?
	`
	result, err := tx.Exec(query,
		account.Name,
		account.Subtype,
		account.IsActive,
		time.Now(),
		account.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
