package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ledger-service/internal/models"
)

// OverAllocationError rejects an allocation that would push the sum of
// allocations for a document past its total. The caller must split or
// adjust the amount; nothing is written.
type OverAllocationError struct {
	DocumentType models.DocumentType
	DocumentID   string
	Total        decimal.Decimal
	Allocated    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("allocation of %s exceeds %s %s total %s (already allocated %s)",
		e.Requested.StringFixed(2), e.DocumentType, e.DocumentID,
		e.Total.StringFixed(2), e.Allocated.StringFixed(2))
}

// NoteExhaustedError rejects a note application larger than the note's
// remaining amount.
type NoteExhaustedError struct {
	NoteID    string
	Remaining decimal.Decimal
	Requested decimal.Decimal
}

func (e *NoteExhaustedError) Error() string {
	return fmt.Sprintf("note %s has %s remaining, cannot apply %s",
		e.NoteID, e.Remaining.StringFixed(2), e.Requested.StringFixed(2))
}

// InvalidAllocationError rejects malformed allocation input before any
// database work.
type InvalidAllocationError struct {
	Reason string
}

func (e *InvalidAllocationError) Error() string {
	return "invalid allocation: " + e.Reason
}
