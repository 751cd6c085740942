package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledger-service/internal/accounts"
	"ledger-service/internal/models"
	"ledger-service/internal/repositories"
)

// LineInput is one debit or credit side of an entry to post.
type LineInput struct {
	AccountID int64           `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Currency  string          `json:"currency,omitempty"`
	FxRate    decimal.Decimal `json:"fx_rate,omitempty"`
	ProjectID string          `json:"project_id,omitempty"`
	Memo      string          `json:"memo,omitempty"`
}

// EntryInput describes a journal entry to post. Currency and FxRate are
// entry-level defaults applied to lines that do not set their own.
type EntryInput struct {
	CompanyID   string            `json:"company_id"`
	Date        time.Time         `json:"date"`
	SourceType  models.SourceType `json:"source_type,omitempty"`
	SourceID    string            `json:"source_id,omitempty"`
	Description string            `json:"description"`
	Currency    string            `json:"currency,omitempty"`
	FxRate      decimal.Decimal   `json:"fx_rate,omitempty"`
	CreatedBy   string            `json:"created_by,omitempty"`
	Lines       []LineInput       `json:"lines"`
}

// JournalRef identifies a posted entry.
type JournalRef struct {
	ID            int64  `json:"id"`
	JournalNumber string `json:"journal_number"`
}

// Service posts and reverses journal entries.
type Service struct {
	db        *sql.DB
	journals  repositories.JournalRepository
	sequences repositories.SequenceRepository
	directory *accounts.Directory
	audit     repositories.AuditSink
}

func NewService(
	db *sql.DB,
	journals repositories.JournalRepository,
	sequences repositories.SequenceRepository,
	directory *accounts.Directory,
	audit repositories.AuditSink,
) *Service {
	return &Service{
		db:        db,
		journals:  journals,
		sequences: sequences,
		directory: directory,
		audit:     audit,
	}
}

// Post validates the entry and persists header and lines as one
// transaction. A validation failure writes nothing; a reader never
// observes a partially-written entry.
func (s *Service) Post(input EntryInput) (*JournalRef, error) {
	lines, err := s.buildLines(input)
	if err != nil {
		return nil, err
	}
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}
	if err := s.checkAccounts(input.CompanyID, lines); err != nil {
		return nil, err
	}

	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = models.SourceManual
	}

	totalAmount := decimal.Zero
	for _, line := range lines {
		totalAmount = totalAmount.Add(line.BaseDebit)
	}

	entry := &models.JournalEntry{
		CompanyID:   input.CompanyID,
		Date:        input.Date,
		SourceType:  sourceType,
		SourceID:    input.SourceID,
		Description: input.Description,
		TotalAmount: totalAmount,
		CreatedBy:   input.CreatedBy,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	entry.JournalNumber, err = s.sequences.NextJournalNumber(tx, input.CompanyID, input.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to assign journal number: %v", err)
	}

	if err := s.journals.InsertEntry(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to insert journal entry: %v", err)
	}
	if err := s.journals.InsertLines(tx, entry.ID, lines); err != nil {
		return nil, fmt.Errorf("failed to insert journal lines: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}

	ref := &JournalRef{ID: entry.ID, JournalNumber: entry.JournalNumber}
	s.audit.Record(input.CompanyID, "journal", entry.JournalNumber, models.AuditActionCreated, nil, ref)
	return ref, nil
}

// Reverse posts a new entry with every line's debit and credit transposed.
// The original is never mutated or deleted; this is the only sanctioned
// correction of a posted entry.
func (s *Service) Reverse(journalID int64, reversalDate time.Time, reason, userID string) (*JournalRef, error) {
	original, err := s.journals.GetEntryByID(journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal entry: %v", err)
	}
	lines, err := s.journals.GetLines(journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal lines: %v", err)
	}

	reversed := TransposeLines(lines)
	inputs := make([]LineInput, len(reversed))
	for i, line := range reversed {
		inputs[i] = LineInput{
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Currency:  line.Currency,
			FxRate:    line.FxRate,
			ProjectID: line.ProjectID,
			Memo:      line.Memo,
		}
	}

	ref, err := s.Post(EntryInput{
		CompanyID:   original.CompanyID,
		Date:        reversalDate,
		SourceType:  models.SourceReversal,
		SourceID:    fmt.Sprintf("%d", journalID),
		Description: fmt.Sprintf("Reversal of %s: %s", original.JournalNumber, reason),
		CreatedBy:   userID,
		Lines:       inputs,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(original.CompanyID, "journal", original.JournalNumber, models.AuditActionReversed, original.JournalNumber, ref)
	return ref, nil
}

// Entry loads a posted entry with its lines.
func (s *Service) Entry(journalID int64) (*models.JournalEntry, error) {
	entry, err := s.journals.GetEntryByID(journalID)
	if err != nil {
		return nil, err
	}
	entry.Lines, err = s.journals.GetLines(journalID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// EntriesByCompany lists posted entries in date order, headers only.
func (s *Service) EntriesByCompany(companyID string) ([]*models.JournalEntry, error) {
	return s.journals.GetEntriesByCompany(companyID)
}

func (s *Service) buildLines(input EntryInput) ([]*models.JournalLine, error) {
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	fxRate := input.FxRate
	if fxRate.IsZero() {
		fxRate = decimal.NewFromInt(1)
	}

	lines := make([]*models.JournalLine, len(input.Lines))
	for i, in := range input.Lines {
		lineCurrency := in.Currency
		if lineCurrency == "" {
			lineCurrency = currency
		}
		lineRate := in.FxRate
		if lineRate.IsZero() {
			lineRate = fxRate
		}
		lines[i] = &models.JournalLine{
			LineNumber: i + 1,
			AccountID:  in.AccountID,
			Debit:      in.Debit,
			Credit:     in.Credit,
			Currency:   lineCurrency,
			FxRate:     lineRate,
			BaseDebit:  in.Debit.Mul(lineRate).Round(2),
			BaseCredit: in.Credit.Mul(lineRate).Round(2),
			ProjectID:  in.ProjectID,
			Memo:       in.Memo,
		}
	}
	return lines, nil
}

func (s *Service) checkAccounts(companyID string, lines []*models.JournalLine) error {
	for _, line := range lines {
		account, err := s.directory.Get(companyID, line.AccountID)
		if err != nil {
			return fmt.Errorf("failed to look up account %d: %v", line.AccountID, err)
		}
		if account == nil || !account.IsActive {
			return &UnknownAccountError{AccountID: line.AccountID}
		}
	}
	return nil
}
