package repositories

import (
	"database/sql"

	"ledger-service/internal/models"
)

type JournalRepository interface {
	InsertEntry(tx *sql.Tx, entry *models.JournalEntry) error
	InsertLines(tx *sql.Tx, journalID int64, lines []*models.JournalLine) error
	GetEntryByID(id int64) (*models.JournalEntry, error)
	GetLines(journalID int64) ([]*models.JournalLine, error)
	GetEntriesByCompany(companyID string) ([]*models.JournalEntry, error)
}

type journalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) InsertEntry(tx *sql.Tx, entry *models.JournalEntry) error {
	query := `
		INSERT INTO journals (
			company_id, journal_number, entry_date, source_type, source_id,
			description, total_amount, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.Exec(query,
		entry.CompanyID,
		entry.JournalNumber,
		entry.Date,
		entry.SourceType,
		entry.SourceID,
		entry.Description,
		entry.TotalAmount,
		entry.CreatedBy,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

func (r *journalRepository) InsertLines(tx *sql.Tx, journalID int64, lines []*models.JournalLine) error {
	query := `
		INSERT INTO journal_lines (
			journal_id, line_number, account_id, debit, credit,
			currency, fx_rate, base_debit, base_credit, project_id, memo
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, line := range lines {
		result, err := tx.Exec(query,
			journalID,
			line.LineNumber,
			line.AccountID,
			line.Debit,
			line.Credit,
			line.Currency,
			line.FxRate,
			line.BaseDebit,
			line.BaseCredit,
			line.ProjectID,
			line.Memo,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		line.ID = id
		line.JournalID = journalID
	}
	return nil
}

func (r *journalRepository) GetEntryByID(id int64) (*models.JournalEntry, error) {
	entry := &models.JournalEntry{}
	query := `
		SELECT id, company_id, journal_number, entry_date, source_type,
		       source_id, description, total_amount, created_by, created_at
		FROM journals
		WHERE id = ?
	`
	err := r.db.QueryRow(query, id).Scan(
		&entry.ID,
		&entry.CompanyID,
		&entry.JournalNumber,
		&entry.Date,
		&entry.SourceType,
		&entry.SourceID,
		&entry.Description,
		&entry.TotalAmount,
		&entry.CreatedBy,
		&entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *journalRepository) GetLines(journalID int64) ([]*models.JournalLine, error) {
	query := `
		SELECT id, journal_id, line_number, account_id, debit, credit,
		       currency, fx_rate, base_debit, base_credit, project_id, memo
		FROM journal_lines
		WHERE journal_id = ?
		ORDER BY line_number
	`
	rows, err := r.db.Query(query, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*models.JournalLine
	for rows.Next() {
		line := &models.JournalLine{}
		err := rows.Scan(
			&line.ID,
			&line.JournalID,
			&line.LineNumber,
			&line.AccountID,
			&line.Debit,
			&line.Credit,
			&line.Currency,
			&line.FxRate,
			&line.BaseDebit,
			&line.BaseCredit,
			&line.ProjectID,
			&line.Memo,
		)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *journalRepository) GetEntriesByCompany(companyID string) ([]*models.JournalEntry, error) {
	query := `
		SELECT id, company_id, journal_number, entry_date, source_type,
		       source_id, description, total_amount, created_by, created_at
		FROM journals
		WHERE company_id = ?
		ORDER BY entry_date, id
	`
	rows, err := r.db.Query(query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.JournalEntry
	for rows.Next() {
		entry := &models.JournalEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.CompanyID,
			&entry.JournalNumber,
			&entry.Date,
			&entry.SourceType,
			&entry.SourceID,
			&entry.Description,
			&entry.TotalAmount,
			&entry.CreatedBy,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
