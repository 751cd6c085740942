package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLinesAppliesEntryDefaults(t *testing.T) {
	s := &Service{}
	lines, err := s.buildLines(EntryInput{
		CompanyID: "co-1",
		Date:      time.Now(),
		Lines: []LineInput{
			{AccountID: 10, Debit: decimal.RequireFromString("100.00")},
			{AccountID: 20, Credit: decimal.RequireFromString("100.00")},
		},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, 1, lines[0].LineNumber)
	assert.Equal(t, 2, lines[1].LineNumber)
	assert.Equal(t, "USD", lines[0].Currency)
	assert.True(t, lines[0].FxRate.Equal(decimal.NewFromInt(1)))
	assert.True(t, lines[0].BaseDebit.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, lines[1].BaseCredit.Equal(decimal.RequireFromString("100.00")))
}

func TestBuildLinesConvertsToBaseCurrency(t *testing.T) {
	s := &Service{}
	lines, err := s.buildLines(EntryInput{
		Currency: "EUR",
		FxRate:   decimal.RequireFromString("1.0947"),
		Lines: []LineInput{
			{AccountID: 10, Debit: decimal.RequireFromString("100.00")},
		},
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, "EUR", lines[0].Currency)
	// 100.00 * 1.0947 rounds to 109.47 at 2dp.
	assert.True(t, lines[0].BaseDebit.Equal(decimal.RequireFromString("109.47")))
	assert.True(t, lines[0].Debit.Equal(decimal.RequireFromString("100.00")))
}

func TestBuildLinesLineOverridesWin(t *testing.T) {
	s := &Service{}
	lines, err := s.buildLines(EntryInput{
		Currency: "USD",
		Lines: []LineInput{
			{
				AccountID: 10,
				Debit:     decimal.RequireFromString("50.00"),
				Currency:  "GBP",
				FxRate:    decimal.RequireFromString("1.30"),
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "GBP", lines[0].Currency)
	assert.True(t, lines[0].BaseDebit.Equal(decimal.RequireFromString("65.00")))
}
