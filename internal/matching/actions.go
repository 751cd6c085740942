package matching

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledger-service/internal/models"
)

// ActionStatus classifies what the auto-matcher intends to do, or did,
// with a payment.
type ActionStatus string

const (
	ActionWouldAllocate ActionStatus = "would-allocate"
	ActionSkipped       ActionStatus = "skipped"
	ActionAllocated     ActionStatus = "allocated"
	ActionFailed        ActionStatus = "failed"
)

// Action is one proposed (or executed) allocation from the auto-match
// protocol. Preview returns actions without side effects; confirm executes
// the selected would-allocate subset.
type Action struct {
	PaymentType      models.PaymentType  `json:"payment_type"`
	PaymentID        string              `json:"payment_id"`
	DocumentType     models.DocumentType `json:"document_type"`
	DocumentID       string              `json:"document_id"`
	Amount           decimal.Decimal     `json:"amount"`
	Status           ActionStatus        `json:"status"`
	Reason           string              `json:"reason,omitempty"`
	PaymentRef       string              `json:"payment_ref,omitempty"`
	DocumentRef      string              `json:"document_ref,omitempty"`
	PaymentDate      time.Time           `json:"payment_date"`
	DocumentDate     time.Time           `json:"document_date,omitempty"`
	CurrencyMismatch bool                `json:"currency_mismatch"`
	DateDiffDays     int                 `json:"date_diff_days"`
	HighConfidence   bool                `json:"high_confidence"`
	AmountScore      int                 `json:"amount_score"`
	DateScore        int                 `json:"date_score"`
	TotalScore       int                 `json:"total_score"`
	AllocationID     int64               `json:"allocation_id,omitempty"`
	Error            string              `json:"error,omitempty"`
}

// ActionKey identifies an action across the preview/confirm round trip.
type ActionKey struct {
	PaymentType  models.PaymentType  `json:"payment_type"`
	PaymentID    string              `json:"payment_id"`
	DocumentType models.DocumentType `json:"document_type"`
	DocumentID   string              `json:"document_id"`
}

func (k ActionKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.PaymentType, k.PaymentID, k.DocumentType, k.DocumentID)
}

// Key returns the action's selection key.
func (a *Action) Key() ActionKey {
	return ActionKey{
		PaymentType:  a.PaymentType,
		PaymentID:    a.PaymentID,
		DocumentType: a.DocumentType,
		DocumentID:   a.DocumentID,
	}
}

// ComputeActions derives the auto-match action list from a snapshot of
// open payments and documents. It is a pure function of its inputs:
// preview and confirm call it identically, confirm on a fresh
// authoritative snapshot, so nothing hidden can drift between the phases.
//
// A payment becomes would-allocate only when exactly one candidate attains
// its maximum total score and that candidate matches the amount exactly.
// Ambiguous payments are skipped, never errors.
func ComputeActions(payments []OpenPayment, docs []OpenDocument, opts Options) []*Action {
	var actions []*Action
	for _, p := range payments {
		if p.Unallocated.LessThanOrEqual(models.Epsilon) {
			continue
		}
		candidates := Rank(p, docs, opts)
		if len(candidates) == 0 {
			continue
		}

		top := candidates[0]
		action := &Action{
			PaymentType:      p.Payment.Type,
			PaymentID:        p.Payment.ID,
			DocumentType:     top.DocumentType,
			DocumentID:       top.DocumentID,
			PaymentRef:       p.Payment.Number,
			DocumentRef:      top.DocumentNumber,
			PaymentDate:      p.Payment.Date,
			CurrencyMismatch: top.CurrencyMismatch,
			DateDiffDays:     top.DateDiffDays,
			HighConfidence:   top.HighConfidence,
			AmountScore:      top.AmountScore,
			DateScore:        top.DateScore,
			TotalScore:       top.TotalScore,
		}

		uniqueTop := len(candidates) == 1 || candidates[1].TotalScore < top.TotalScore

		switch {
		case !top.AmountEqual:
			action.Status = ActionSkipped
			action.Reason = "no exact amount match"
			action.Amount = p.Unallocated
		case !uniqueTop:
			action.Status = ActionSkipped
			action.Reason = "ambiguous top score"
			action.Amount = p.Unallocated
		default:
			action.Status = ActionWouldAllocate
			amount := p.Unallocated
			if top.Outstanding.LessThan(amount) {
				amount = top.Outstanding
			}
			action.Amount = amount
		}
		actions = append(actions, action)
	}
	return actions
}

// ApplySelection marks would-allocate actions outside the selected set as
// skipped. A nil selection keeps everything.
func ApplySelection(actions []*Action, selected []ActionKey) map[string]bool {
	if len(selected) == 0 {
		return nil
	}
	selectedSet := make(map[string]bool, len(selected))
	for _, k := range selected {
		selectedSet[k.String()] = true
	}
	for _, a := range actions {
		if a.Status == ActionWouldAllocate && !selectedSet[a.Key().String()] {
			a.Status = ActionSkipped
			a.Reason = "not selected"
		}
	}
	return selectedSet
}
