package repositories

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"ledger-service/internal/models"
)

type AllocationRepository interface {
	InsertAllocation(tx *sql.Tx, alloc *models.PaymentAllocation) error
	GetAllocationByID(id int64) (*models.PaymentAllocation, error)
	DeleteAllocation(tx *sql.Tx, id int64) error
	// SumForDocument runs inside the caller's transaction so the total is
	// consistent with the document row lock held by the allocation engine.
	SumForDocument(tx *sql.Tx, docType models.DocumentType, docID string) (decimal.Decimal, error)
	SumForPayment(paymentType models.PaymentType, paymentID string) (decimal.Decimal, error)
	GetAllocationsForDocument(docType models.DocumentType, docID string) ([]*models.PaymentAllocation, error)
	GetRecentAllocations(companyID string, limit int) ([]*models.PaymentAllocation, error)
}

type allocationRepository struct {
	db *sql.DB
}

func NewAllocationRepository(db *sql.DB) AllocationRepository {
	return &allocationRepository{db: db}
}

func (r *allocationRepository) InsertAllocation(tx *sql.Tx, alloc *models.PaymentAllocation) error {
	query := `
		INSERT INTO payment_allocations (
			company_id, payment_type, payment_id, document_type, document_id,
			allocated_amount, allocation_date, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.Exec(query,
		alloc.CompanyID,
		alloc.PaymentType,
		alloc.PaymentID,
		alloc.DocumentType,
		alloc.DocumentID,
		alloc.AllocatedAmount,
		alloc.AllocationDate,
		alloc.CreatedBy,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	alloc.ID = id
	return nil
}

func (r *allocationRepository) GetAllocationByID(id int64) (*models.PaymentAllocation, error) {
	alloc := &models.PaymentAllocation{}
	query := `
		SELECT id, company_id, payment_type, payment_id, document_type,
		       document_id, allocated_amount, allocation_date, created_by
		FROM payment_allocations
		WHERE id = ?
	`
	err := r.db.QueryRow(query, id).Scan(
		&alloc.ID,
		&alloc.CompanyID,
		&alloc.PaymentType,
		&alloc.PaymentID,
		&alloc.DocumentType,
		&alloc.DocumentID,
		&alloc.AllocatedAmount,
		&alloc.AllocationDate,
		&alloc.CreatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return alloc, nil
}

func (r *allocationRepository) DeleteAllocation(tx *sql.Tx, id int64) error {
	result, err := tx.Exec(`DELETE FROM payment_allocations WHERE id = ?`, id)
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

func (r *allocationRepository) SumForDocument(tx *sql.Tx, docType models.DocumentType, docID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(allocated_amount), 0)
		FROM payment_allocations
		WHERE document_type = ? AND document_id = ?
	`
	var total decimal.Decimal
	err := tx.QueryRow(query, docType, docID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *allocationRepository) SumForPayment(paymentType models.PaymentType, paymentID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(allocated_amount), 0)
		FROM payment_allocations
		WHERE payment_type = ? AND payment_id = ?
	`
	var total decimal.Decimal
	err := r.db.QueryRow(query, paymentType, paymentID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *allocationRepository) GetAllocationsForDocument(docType models.DocumentType, docID string) ([]*models.PaymentAllocation, error) {
	query := `
		SELECT id, company_id, payment_type, payment_id, document_type,
		       document_id, allocated_amount, allocation_date, created_by
		FROM payment_allocations
		WHERE document_type = ? AND document_id = ?
		ORDER BY allocation_date DESC, id DESC
	`
	return r.queryAllocations(query, docType, docID)
}

func (r *allocationRepository) GetRecentAllocations(companyID string, limit int) ([]*models.PaymentAllocation, error) {
	query := `
		SELECT id, company_id, payment_type, payment_id, document_type,
		       document_id, allocated_amount, allocation_date, created_by
		FROM payment_allocations
		WHERE company_id = ?
		ORDER BY allocation_date DESC, id DESC
		LIMIT ?
	`
	return r.queryAllocations(query, companyID, limit)
}

func (r *allocationRepository) queryAllocations(query string, args ...interface{}) ([]*models.PaymentAllocation, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []*models.PaymentAllocation
	for rows.Next() {
		alloc := &models.PaymentAllocation{}
		err := rows.Scan(
			&alloc.ID,
			&alloc.CompanyID,
			&alloc.PaymentType,
			&alloc.PaymentID,
			&alloc.DocumentType,
			&alloc.DocumentID,
			&alloc.AllocatedAmount,
			&alloc.AllocationDate,
			&alloc.CreatedBy,
		)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	return allocations, rows.Err()
}
