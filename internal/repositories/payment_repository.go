package repositories

import (
	"database/sql"
	"time"

	"ledger-service/internal/models"
)

type PaymentRepository interface {
	GetPayment(paymentType models.PaymentType, id string) (*models.Payment, error)
	GetPaymentsByCompany(companyID string, paymentType models.PaymentType, from, to *time.Time, counterpartyID string) ([]*models.Payment, error)
}

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `
	id, company_id, payment_type, payment_number, counterparty_id,
	payment_date, amount, currency, reference
`

func (r *paymentRepository) GetPayment(paymentType models.PaymentType, id string) (*models.Payment, error) {
	p := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_type = ? AND id = ?`
	err := r.db.QueryRow(query, paymentType, id).Scan(
		&p.ID,
		&p.CompanyID,
		&p.Type,
		&p.Number,
		&p.CounterpartyID,
		&p.Date,
		&p.Amount,
		&p.Currency,
		&p.Reference,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) GetPaymentsByCompany(companyID string, paymentType models.PaymentType, from, to *time.Time, counterpartyID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE company_id = ? AND payment_type = ?
	`
	args := []interface{}{companyID, paymentType}
	if from != nil {
		query += ` AND payment_date >= ?`
		args = append(args, *from)
	}
	if to != nil {
		query += ` AND payment_date <= ?`
		args = append(args, *to)
	}
	if counterpartyID != "" {
		query += ` AND counterparty_id = ?`
		args = append(args, counterpartyID)
	}
	query += ` ORDER BY payment_date DESC, id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		err := rows.Scan(
			&p.ID,
			&p.CompanyID,
			&p.Type,
			&p.Number,
			&p.CounterpartyID,
			&p.Date,
			&p.Amount,
			&p.Currency,
			&p.Reference,
		)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
