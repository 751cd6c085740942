package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// SequenceRepository hands out journal numbers. Numbers are monotonic per
// company and fiscal year; the row lock on document_sequences serializes
// concurrent posts.
type SequenceRepository interface {
	NextJournalNumber(tx *sql.Tx, companyID string, now time.Time) (string, error)
}

type sequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

const journalPrefix = "JE"

func (r *sequenceRepository) NextJournalNumber(tx *sql.Tx, companyID string, now time.Time) (string, error) {
	fiscalYear, err := r.fiscalYear(tx, companyID, now)
	if err != nil {
		return "", err
	}

	var next int64
	query := `
		SELECT next_number
		FROM document_sequences
		WHERE company_id = ? AND document_type = 'journal' AND fiscal_year = ?
		FOR UPDATE
	`
	err = tx.QueryRow(query, companyID, fiscalYear).Scan(&next)
	switch {
	case err == sql.ErrNoRows:
		next = 1
		_, err = tx.Exec(`
			INSERT INTO document_sequences (company_id, document_type, fiscal_year, next_number)
			VALUES (?, 'journal', ?, 2)
		`, companyID, fiscalYear)
		if err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	default:
		_, err = tx.Exec(`
			UPDATE document_sequences
			SET next_number = next_number + 1
			WHERE company_id = ? AND document_type = 'journal' AND fiscal_year = ?
		`, companyID, fiscalYear)
		if err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%s-%d-%05d", journalPrefix, fiscalYear, next), nil
}

// fiscalYear resolves the company's fiscal year for the given date.
// fiscal_year_start is a month 1..12; dates before it belong to the
// previous fiscal year.
func (r *sequenceRepository) fiscalYear(tx *sql.Tx, companyID string, now time.Time) (int, error) {
	var start int
	err := tx.QueryRow(`SELECT fiscal_year_start FROM companies WHERE id = ?`, companyID).Scan(&start)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("company %s: %w", companyID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	if start < 1 || start > 12 {
		start = 1
	}

	year := now.Year()
	if int(now.Month()) < start {
		year--
	}
	return year, nil
}
