package allocation

import (
	"time"

	"github.com/shopspring/decimal"

	"ledger-service/internal/models"
)

// DeriveStatus computes a document's paid_amount and status from the total
// allocated against it. It is evaluated on every allocation change, for
// both allocate and unallocate, so the two stay exact inverses.
//
//	allocated >= total - eps          -> paid
//	allocated > eps                   -> partially_paid
//	current status is draft           -> draft (unchanged)
//	due date exists and has passed    -> overdue
//	otherwise                         -> sent (invoice) / pending (bill)
//
// paid_amount is clamped to [0, total].
func DeriveStatus(doc *models.Document, allocated decimal.Decimal, now time.Time) (decimal.Decimal, models.DocumentStatus) {
	paid := allocated
	if paid.GreaterThan(doc.Total) {
		paid = doc.Total
	}
	if paid.IsNegative() {
		paid = decimal.Zero
	}

	switch {
	case allocated.GreaterThanOrEqual(doc.Total.Sub(models.Epsilon)):
		return paid, models.StatusPaid
	case allocated.GreaterThan(models.Epsilon):
		return paid, models.StatusPartiallyPaid
	case doc.Status == models.StatusDraft:
		return paid, models.StatusDraft
	case doc.DueDate != nil && doc.DueDate.Before(now):
		return paid, models.StatusOverdue
	case doc.Type == models.DocumentBill:
		return paid, models.StatusPending
	default:
		return paid, models.StatusSent
	}
}

// DeriveNoteStatus computes a note's remaining_amount and status after an
// application. remaining reaches exactly zero when, and only when, the
// note transitions to applied.
func DeriveNoteStatus(remaining decimal.Decimal) (decimal.Decimal, models.NoteStatus) {
	if remaining.LessThanOrEqual(models.Epsilon) {
		return decimal.Zero, models.NoteApplied
	}
	return remaining, models.NotePartiallyApplied
}
