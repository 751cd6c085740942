package matching

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeActionsAllocatesUniqueExactMatch(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{
		openInvoice("near", "cust-1", "250.00", day(8)),
		openInvoice("far", "cust-1", "250.00", day(10).AddDate(0, 0, -15)),
	}

	actions := ComputeActions([]OpenPayment{p}, docs, DefaultOptions())
	require.Len(t, actions, 1)

	a := actions[0]
	assert.Equal(t, ActionWouldAllocate, a.Status)
	assert.Equal(t, "near", a.DocumentID)
	assert.True(t, a.Amount.Equal(decimal.RequireFromString("250.00")))
	// The second exact-amount candidate 15 days out scores lower; it does
	// not make the match ambiguous.
	assert.Empty(t, a.Reason)
}

func TestComputeActionsSkipsTiedTopScores(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{
		openInvoice("a", "cust-1", "250.00", day(5)),
		openInvoice("b", "cust-1", "250.00", day(15)),
	}

	actions := ComputeActions([]OpenPayment{p}, docs, DefaultOptions())
	require.Len(t, actions, 1)
	assert.Equal(t, ActionSkipped, actions[0].Status)
	assert.Equal(t, "ambiguous top score", actions[0].Reason)
}

func TestComputeActionsSkipsWithoutExactAmount(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{openInvoice("d1", "cust-1", "255.00", day(9))}

	actions := ComputeActions([]OpenPayment{p}, docs, DefaultOptions())
	require.Len(t, actions, 1)
	assert.Equal(t, ActionSkipped, actions[0].Status)
	assert.Equal(t, "no exact amount match", actions[0].Reason)
}

func TestComputeActionsCapsAmountAtOutstanding(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	p.Unallocated = decimal.RequireFromString("250.00")
	doc := openInvoice("d1", "cust-1", "250.00", day(9))
	doc.Outstanding = decimal.RequireFromString("249.995")

	opts := DefaultOptions()
	actions := ComputeActions([]OpenPayment{p}, []OpenDocument{doc}, opts)
	require.Len(t, actions, 1)
	require.Equal(t, ActionWouldAllocate, actions[0].Status)
	assert.True(t, actions[0].Amount.Equal(doc.Outstanding))
}

func TestComputeActionsSkipsSettledPayments(t *testing.T) {
	settled := openReceipt("r1", "cust-1", "250.00", day(10))
	settled.Unallocated = decimal.RequireFromString("0.005")
	docs := []OpenDocument{openInvoice("d1", "cust-1", "250.00", day(9))}

	assert.Empty(t, ComputeActions([]OpenPayment{settled}, docs, DefaultOptions()))
}

func TestComputeActionsOmitsPaymentsWithoutCandidates(t *testing.T) {
	p := openReceipt("r1", "cust-1", "250.00", day(10))
	docs := []OpenDocument{openInvoice("d1", "cust-2", "250.00", day(9))}

	assert.Empty(t, ComputeActions([]OpenPayment{p}, docs, DefaultOptions()))
}

func TestComputeActionsIsPure(t *testing.T) {
	payments := []OpenPayment{openReceipt("r1", "cust-1", "250.00", day(10))}
	docs := []OpenDocument{openInvoice("d1", "cust-1", "250.00", day(9))}
	opts := DefaultOptions()

	first := ComputeActions(payments, docs, opts)
	second := ComputeActions(payments, docs, opts)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Status, second[0].Status)
	assert.Equal(t, first[0].DocumentID, second[0].DocumentID)
	assert.True(t, first[0].Amount.Equal(second[0].Amount))
}

func TestApplySelectionMarksUnselected(t *testing.T) {
	payments := []OpenPayment{
		openReceipt("r1", "cust-1", "250.00", day(10)),
		openReceipt("r2", "cust-2", "100.00", day(10)),
	}
	docs := []OpenDocument{
		openInvoice("d1", "cust-1", "250.00", day(9)),
		openInvoice("d2", "cust-2", "100.00", day(9)),
	}

	actions := ComputeActions(payments, docs, DefaultOptions())
	require.Len(t, actions, 2)

	selected := ApplySelection(actions, []ActionKey{actions[0].Key()})
	require.NotNil(t, selected)
	assert.True(t, selected[actions[0].Key().String()])

	assert.Equal(t, ActionWouldAllocate, actions[0].Status)
	assert.Equal(t, ActionSkipped, actions[1].Status)
	assert.Equal(t, "not selected", actions[1].Reason)
}

func TestApplySelectionNilKeepsEverything(t *testing.T) {
	payments := []OpenPayment{openReceipt("r1", "cust-1", "250.00", day(10))}
	docs := []OpenDocument{openInvoice("d1", "cust-1", "250.00", day(9))}

	actions := ComputeActions(payments, docs, DefaultOptions())
	require.Len(t, actions, 1)

	assert.Nil(t, ApplySelection(actions, nil))
	assert.Equal(t, ActionWouldAllocate, actions[0].Status)
}

func TestActionKeyRoundTrip(t *testing.T) {
	k := ActionKey{
		PaymentType:  "receipt",
		PaymentID:    "r1",
		DocumentType: "invoice",
		DocumentID:   "d1",
	}
	assert.Equal(t, "receipt:r1:invoice:d1", k.String())
}
