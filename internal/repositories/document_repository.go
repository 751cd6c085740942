package repositories

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"ledger-service/internal/models"
)

// DocumentRepository is the core's view of the document registry. The
// *ForUpdate variants take a row lock so that a concurrent allocation
// against the same document serializes on the read-recompute-write cycle.
type DocumentRepository interface {
	GetDocument(docType models.DocumentType, id string) (*models.Document, error)
	GetDocumentForUpdate(tx *sql.Tx, docType models.DocumentType, id string) (*models.Document, error)
	UpdateDocumentStatus(tx *sql.Tx, docType models.DocumentType, id string, paidAmount decimal.Decimal, status models.DocumentStatus) error
	GetOpenDocuments(companyID string, docType models.DocumentType, counterpartyID string) ([]*models.Document, error)
	GetNoteForUpdate(tx *sql.Tx, id string) (*models.Note, error)
	UpdateNote(tx *sql.Tx, id string, remaining decimal.Decimal, status models.NoteStatus) error
}

type documentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `
	id, company_id, document_type, document_number, counterparty_id,
	document_date, due_date, total, paid_amount, status, currency, fx_rate,
	updated_at
`

func scanDocument(row *sql.Row) (*models.Document, error) {
	doc := &models.Document{}
	var dueDate sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.CompanyID,
		&doc.Type,
		&doc.Number,
		&doc.CounterpartyID,
		&doc.Date,
		&dueDate,
		&doc.Total,
		&doc.PaidAmount,
		&doc.Status,
		&doc.Currency,
		&doc.FxRate,
		&doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		doc.DueDate = &dueDate.Time
	}
	return doc, nil
}

func (r *documentRepository) GetDocument(docType models.DocumentType, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_type = ? AND id = ?`
	return scanDocument(r.db.QueryRow(query, docType, id))
}

func (r *documentRepository) GetDocumentForUpdate(tx *sql.Tx, docType models.DocumentType, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_type = ? AND id = ? FOR UPDATE`
	return scanDocument(tx.QueryRow(query, docType, id))
}

func (r *documentRepository) UpdateDocumentStatus(tx *sql.Tx, docType models.DocumentType, id string, paidAmount decimal.Decimal, status models.DocumentStatus) error {
	query := `
		UPDATE documents
		SET paid_amount = ?,
		    status = ?,
		    updated_at = ?
		WHERE document_type = ? AND id = ?
	`
	result, err := tx.Exec(query, paidAmount, status, time.Now(), docType, id)
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

func (r *documentRepository) GetOpenDocuments(companyID string, docType models.DocumentType, counterpartyID string) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = ?
		  AND document_type = ?
		  AND status NOT IN ('draft', 'paid')
		  AND paid_amount < total
	`
	args := []interface{}{companyID, docType}
	if counterpartyID != "" {
		query += ` AND counterparty_id = ?`
		args = append(args, counterpartyID)
	}
	query += ` ORDER BY document_date, id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		var dueDate sql.NullTime
		err := rows.Scan(
			&doc.ID,
			&doc.CompanyID,
			&doc.Type,
			&doc.Number,
			&doc.CounterpartyID,
			&doc.Date,
			&dueDate,
			&doc.Total,
			&doc.PaidAmount,
			&doc.Status,
			&doc.Currency,
			&doc.FxRate,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if dueDate.Valid {
			doc.DueDate = &dueDate.Time
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepository) GetNoteForUpdate(tx *sql.Tx, id string) (*models.Note, error) {
	note := &models.Note{}
	query := `
		SELECT id, company_id, note_type, note_number, total,
		       remaining_amount, status, updated_at
		FROM notes
		WHERE id = ?
		FOR UPDATE
	`
	err := tx.QueryRow(query, id).Scan(
		&note.ID,
		&note.CompanyID,
		&note.Type,
		&note.Number,
		&note.Total,
		&note.RemainingAmount,
		&note.Status,
		&note.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (r *documentRepository) UpdateNote(tx *sql.Tx, id string, remaining decimal.Decimal, status models.NoteStatus) error {
	query := `
		UPDATE notes
		SET remaining_amount = ?,
		    status = ?,
		    updated_at = ?
		WHERE id = ?
	`
	result, err := tx.Exec(query, remaining, status, time.Now(), id)
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
