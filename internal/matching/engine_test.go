package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/models"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func openReceipt(id, counterparty, amount string, date time.Time) OpenPayment {
	return OpenPayment{
		Payment: &models.Payment{
			ID:             id,
			Type:           models.PaymentReceipt,
			Number:         "RCP-" + id,
			CounterpartyID: counterparty,
			Date:           date,
			Amount:         decimal.RequireFromString(amount),
			Currency:       "USD",
		},
		Unallocated: decimal.RequireFromString(amount),
	}
}

func openInvoice(id, counterparty, outstanding string, date time.Time) OpenDocument {
	return OpenDocument{
		Document: &models.Document{
			ID:             id,
			Type:           models.DocumentInvoice,
			Number:         "INV-" + id,
			CounterpartyID: counterparty,
			Date:           date,
			Total:          decimal.RequireFromString(outstanding),
			Status:         models.StatusSent,
			Currency:       "USD",
		},
		Outstanding: decimal.RequireFromString(outstanding),
	}
}

func TestRankExactMatchScoresFull(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{openInvoice("d1", "cust-1", "250.00", day(8))}

	candidates := Rank(p, docs, DefaultOptions())
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, ExactAmountScore, c.AmountScore)
	assert.True(t, c.AmountEqual)
	assert.Equal(t, 2, c.DateDiffDays)
	assert.Equal(t, 28, c.DateScore)
	assert.Equal(t, 128, c.TotalScore)
	assert.True(t, c.HighConfidence)
}

func TestRankOrdersByScoreThenDateGap(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{
		openInvoice("far", "cust-1", "250.00", day(10).AddDate(0, 0, -15)),
		openInvoice("near", "cust-1", "250.00", day(8)),
		openInvoice("off", "cust-1", "255.00", day(9)),
	}

	candidates := Rank(p, docs, DefaultOptions())
	require.Len(t, candidates, 3)
	assert.Equal(t, "near", candidates[0].DocumentID)
	assert.Equal(t, "far", candidates[1].DocumentID)
	assert.Equal(t, "off", candidates[2].DocumentID)
}

func TestRankIsDeterministic(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{
		openInvoice("a", "cust-1", "250.00", day(5)),
		openInvoice("b", "cust-1", "250.00", day(15)),
		openInvoice("c", "cust-1", "250.00", day(5)),
	}

	first := Rank(p, docs, DefaultOptions())
	for i := 0; i < 10; i++ {
		again := Rank(p, docs, DefaultOptions())
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].DocumentID, again[j].DocumentID)
		}
	}
	// All three tie (5-day gap each way); stable sort keeps input order.
	assert.Equal(t, "a", first[0].DocumentID)
	assert.Equal(t, "b", first[1].DocumentID)
	assert.Equal(t, "c", first[2].DocumentID)
}

func TestRankTieIsNotHighConfidence(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{
		openInvoice("a", "cust-1", "250.00", day(5)),
		openInvoice("b", "cust-1", "250.00", day(15)),
	}

	candidates := Rank(p, docs, DefaultOptions())
	require.Len(t, candidates, 2)
	assert.False(t, candidates[0].HighConfidence)
}

func TestRankHighConfidenceNeedsShortDateGap(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(20))
	docs := []OpenDocument{openInvoice("d1", "cust-1", "250.00", day(10))}

	candidates := Rank(p, docs, DefaultOptions())
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].AmountEqual)
	assert.False(t, candidates[0].HighConfidence)
}

func TestRankNearMissScoreDecays(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{openInvoice("d1", "cust-1", "255.00", day(10))}

	candidates := Rank(p, docs, DefaultOptions())
	require.Len(t, candidates, 1)

	// diff 5 against band 10: half the near-miss ceiling.
	assert.Equal(t, 30, candidates[0].AmountScore)
	assert.False(t, candidates[0].AmountEqual)
	assert.False(t, candidates[0].HighConfidence)
}

func TestRankBeyondBandScoresZeroAmount(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{openInvoice("d1", "cust-1", "300.00", day(10))}

	candidates := Rank(p, docs, DefaultOptions())
	require.Len(t, candidates, 1)
	assert.Equal(t, 0, candidates[0].AmountScore)
	assert.Equal(t, 30, candidates[0].DateScore)
}

func TestRankFiltersCounterpartyAndSettled(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	settled := openInvoice("paid", "cust-1", "250.00", day(10))
	settled.Outstanding = decimal.Zero
	docs := []OpenDocument{
		openInvoice("other", "cust-2", "250.00", day(10)),
		settled,
	}

	assert.Nil(t, Rank(p, docs, DefaultOptions()))
}

func TestRankCurrencyStrict(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	eur := openInvoice("d1", "cust-1", "250.00", day(10))
	eur.Document.Currency = "EUR"
	docs := []OpenDocument{eur}

	opts := DefaultOptions()
	candidates := Rank(p, docs, opts)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].CurrencyMismatch)

	opts.CurrencyStrict = true
	assert.Nil(t, Rank(p, docs, opts))
}

func TestRankTruncatesToMaxCandidates(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	var docs []OpenDocument
	for i := 1; i <= 6; i++ {
		docs = append(docs, openInvoice(string(rune('a'+i)), "cust-1", "250.00", day(i)))
	}

	candidates := Rank(p, docs, DefaultOptions())
	assert.Len(t, candidates, 3)
}

func TestRankMinScoreFiltersWeakCandidates(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{openInvoice("d1", "cust-1", "300.00", day(10).AddDate(0, 0, -25))}

	opts := DefaultOptions()
	opts.MinScore = 50
	assert.Nil(t, Rank(p, docs, opts))
}

func TestSuggestSkipsSettledPayments(t *testing.T) {
	settled := openReceipt("r1", "cust-1", "250.00", day(10))
	settled.Unallocated = decimal.Zero
	open := openReceipt("r2", "cust-1", "250.00", day(10))
	docs := []OpenDocument{openInvoice("d1", "cust-1", "250.00", day(9))}

	suggestions := Suggest([]OpenPayment{settled, open}, docs, DefaultOptions())
	require.Len(t, suggestions, 1)
	assert.Equal(t, "r2", suggestions[0].PaymentID)
	require.Len(t, suggestions[0].Candidates, 1)
}
