package matching

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ledger-service/internal/models"
)

const (
	// Score awarded for an exact amount match (within tolerance).
	ExactAmountScore = 100
	// Score for an exact match when exact-amount preference is disabled,
	// and the ceiling of the decaying near-miss score.
	NearAmountScore = 60
	// Date window within which an exact match counts as high confidence.
	HighConfidenceDays = 7
)

// Options tune candidate scoring and filtering.
type Options struct {
	// AmountTolerance is the absolute difference under which two amounts
	// are considered equal.
	AmountTolerance decimal.Decimal
	// AmountBand is the difference beyond which the amount score is zero;
	// between tolerance and band the score decays linearly.
	AmountBand decimal.Decimal
	// MaxDays is the date window for date scoring; gaps at or beyond it
	// score zero.
	MaxDays int
	// MaxCandidates caps the retained candidates per payment.
	MaxCandidates int
	// MinScore discards candidates scoring below it.
	MinScore int
	// CurrencyStrict excludes candidates whose currency differs from the
	// payment's. When false a mismatch is only flagged.
	CurrencyStrict bool
	// PreferExactAmount awards the full exact-match score; otherwise an
	// exact match scores the same ceiling as near misses.
	PreferExactAmount bool
}

// DefaultOptions mirrors the tunings the matching UI uses.
func DefaultOptions() Options {
	return Options{
		AmountTolerance:   models.Epsilon,
		AmountBand:        decimal.NewFromInt(10),
		MaxDays:           30,
		MaxCandidates:     3,
		MinScore:          0,
		CurrencyStrict:    false,
		PreferExactAmount: true,
	}
}

// OpenPayment is a receipt/payment with money left to allocate.
type OpenPayment struct {
	Payment     *models.Payment
	Unallocated decimal.Decimal
}

// OpenDocument is an invoice/bill with an outstanding balance.
type OpenDocument struct {
	Document    *models.Document
	Outstanding decimal.Decimal
}

// Candidate is a scored (payment, document) pairing. Candidates are
// computed on demand and never persisted.
type Candidate struct {
	DocumentType     models.DocumentType `json:"document_type"`
	DocumentID       string              `json:"document_id"`
	DocumentNumber   string              `json:"document_number"`
	Outstanding      decimal.Decimal     `json:"outstanding"`
	Currency         string              `json:"currency"`
	AmountEqual      bool                `json:"amount_equal"`
	CurrencyMismatch bool                `json:"currency_mismatch"`
	AmountScore      int                 `json:"amount_score"`
	DateScore        int                 `json:"date_score"`
	TotalScore       int                 `json:"total_score"`
	DateDiffDays     int                 `json:"date_diff_days"`
	HighConfidence   bool                `json:"high_confidence"`
}

// Suggestion is the ranked candidate list for one payment.
type Suggestion struct {
	PaymentType    models.PaymentType `json:"payment_type"`
	PaymentID      string             `json:"payment_id"`
	PaymentNumber  string             `json:"payment_number"`
	CounterpartyID string             `json:"counterparty_id"`
	Amount         decimal.Decimal    `json:"amount"`
	Date           time.Time          `json:"date"`
	Candidates     []*Candidate       `json:"candidates"`
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(math.Abs(a.Sub(b).Hours()) / 24))
}

func (o Options) amountScore(diff decimal.Decimal) (int, bool) {
	if diff.LessThanOrEqual(o.AmountTolerance) {
		if o.PreferExactAmount {
			return ExactAmountScore, true
		}
		return NearAmountScore, true
	}
	if o.AmountBand.IsPositive() && diff.LessThan(o.AmountBand) {
		score := decimal.NewFromInt(NearAmountScore).
			Mul(o.AmountBand.Sub(diff)).
			Div(o.AmountBand)
		return int(score.IntPart()), false
	}
	return 0, false
}

func (o Options) dateScore(days int) int {
	if days >= o.MaxDays {
		return 0
	}
	return o.MaxDays - days
}

// score builds the candidate for one pairing, or nil when the document is
// out of scope (wrong counterparty, nothing outstanding, filtered out).
func (o Options) score(p OpenPayment, d OpenDocument) *Candidate {
	doc := d.Document
	if doc.CounterpartyID != p.Payment.CounterpartyID {
		return nil
	}
	if !d.Outstanding.IsPositive() {
		return nil
	}

	mismatch := p.Payment.Currency != "" && doc.Currency != "" && p.Payment.Currency != doc.Currency
	if o.CurrencyStrict && mismatch {
		return nil
	}

	diff := d.Outstanding.Sub(p.Unallocated).Abs()
	amountScore, amountEqual := o.amountScore(diff)
	days := daysBetween(p.Payment.Date, doc.Date)
	dateScore := o.dateScore(days)
	total := amountScore + dateScore
	if total < o.MinScore {
		return nil
	}

	return &Candidate{
		DocumentType:     doc.Type,
		DocumentID:       doc.ID,
		DocumentNumber:   doc.Number,
		Outstanding:      d.Outstanding,
		Currency:         doc.Currency,
		AmountEqual:      amountEqual,
		CurrencyMismatch: mismatch,
		AmountScore:      amountScore,
		DateScore:        dateScore,
		TotalScore:       total,
		DateDiffDays:     days,
	}
}

// Rank scores a payment against every document and returns the top
// candidates, ordered by total score descending, then smaller date gap,
// then document input order. The ordering is fully deterministic: equal
// inputs always produce equal rankings.
func Rank(p OpenPayment, docs []OpenDocument, opts Options) []*Candidate {
	var candidates []*Candidate
	for _, d := range docs {
		if c := opts.score(p, d); c != nil {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].TotalScore != candidates[j].TotalScore {
			return candidates[i].TotalScore > candidates[j].TotalScore
		}
		return candidates[i].DateDiffDays < candidates[j].DateDiffDays
	})

	if len(candidates) == 0 {
		return nil
	}

	// High confidence requires an exact amount, a short date gap, and a
	// unique top score among all filtered candidates for this payment.
	top := candidates[0]
	uniqueTop := len(candidates) == 1 || candidates[1].TotalScore < top.TotalScore
	window := HighConfidenceDays
	if opts.MaxDays < window {
		window = opts.MaxDays
	}
	if uniqueTop && top.AmountEqual && top.DateDiffDays <= window {
		top.HighConfidence = true
	}

	if opts.MaxCandidates > 0 && len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}
	return candidates
}

// Suggest builds ranked suggestions for every payment with money left to
// allocate. Payments with no surviving candidates are omitted.
func Suggest(payments []OpenPayment, docs []OpenDocument, opts Options) []*Suggestion {
	var suggestions []*Suggestion
	for _, p := range payments {
		if p.Unallocated.LessThanOrEqual(models.Epsilon) {
			continue
		}
		candidates := Rank(p, docs, opts)
		if len(candidates) == 0 {
			continue
		}
		suggestions = append(suggestions, &Suggestion{
			PaymentType:    p.Payment.Type,
			PaymentID:      p.Payment.ID,
			PaymentNumber:  p.Payment.Number,
			CounterpartyID: p.Payment.CounterpartyID,
			Amount:         p.Unallocated,
			Date:           p.Payment.Date,
			Candidates:     candidates,
		})
	}
	return suggestions
}
