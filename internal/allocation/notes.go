package allocation

import (
	"fmt"
	"time"

	"ledger-service/internal/models"
)

// ApplySalesCreditNote applies part of a sales credit note against an
// invoice. Three updates commit as one atomic unit: the allocation row,
// the invoice's paid_amount/status, and the note's remaining_amount/status.
// A note can never show remaining_amount = 0 while its status is not
// applied, nor the reverse.
func (s *Service) ApplySalesCreditNote(input Input) (int64, error) {
	input.PaymentType = models.PaymentReceipt
	input.DocumentType = models.DocumentInvoice
	return s.applyNote(input, models.NoteCredit)
}

// ApplyPurchaseDebitNote applies part of a purchase debit note against a
// bill, with the same atomicity as ApplySalesCreditNote.
func (s *Service) ApplyPurchaseDebitNote(input Input) (int64, error) {
	input.PaymentType = models.PaymentPayment
	input.DocumentType = models.DocumentBill
	return s.applyNote(input, models.NoteDebit)
}

// checkNote refuses a note of the wrong kind for the operation, and notes
// belonging to another company.
func checkNote(note *models.Note, noteType models.NoteType, companyID string) error {
	if note.Type != noteType {
		return &InvalidAllocationError{
			Reason: fmt.Sprintf("note %s is a %s, expected %s", note.ID, note.Type, noteType),
		}
	}
	if note.CompanyID != companyID {
		return &InvalidAllocationError{
			Reason: fmt.Sprintf("note %s does not belong to company %s", note.ID, companyID),
		}
	}
	return nil
}

func (s *Service) applyNote(input Input, noteType models.NoteType) (int64, error) {
	if err := input.validate(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	now := time.Now()

	note, err := s.documents.GetNoteForUpdate(tx, input.PaymentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load note %s: %w", input.PaymentID, err)
	}
	if err := checkNote(note, noteType, input.CompanyID); err != nil {
		return 0, err
	}
	if input.Amount.GreaterThan(note.RemainingAmount.Add(models.Epsilon)) {
		return 0, &NoteExhaustedError{
			NoteID:    note.ID,
			Remaining: note.RemainingAmount,
			Requested: input.Amount,
		}
	}

	alloc, err := s.allocateInTx(tx, input, now)
	if err != nil {
		return 0, err
	}

	remaining, status := DeriveNoteStatus(note.RemainingAmount.Sub(input.Amount))
	if err := s.documents.UpdateNote(tx, note.ID, remaining, status); err != nil {
		return 0, fmt.Errorf("failed to update note: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %v", err)
	}

	s.audit.Record(input.CompanyID, "note_application", note.ID, models.AuditActionCreated, nil, alloc)
	return alloc.ID, nil
}
