package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/models"
)

func line(n int, account int64, debit, credit string) *models.JournalLine {
	return &models.JournalLine{
		LineNumber: n,
		AccountID:  account,
		Debit:      decimal.RequireFromString(debit),
		Credit:     decimal.RequireFromString(credit),
		Currency:   "USD",
		FxRate:     decimal.NewFromInt(1),
		BaseDebit:  decimal.RequireFromString(debit),
		BaseCredit: decimal.RequireFromString(credit),
	}
}

func TestValidateLinesBalanced(t *testing.T) {
	lines := []*models.JournalLine{
		line(1, 10, "100.00", "0"),
		line(2, 20, "0", "80.00"),
		line(3, 30, "0", "20.00"),
	}
	require.NoError(t, ValidateLines(lines))
}

func TestValidateLinesWithinTolerance(t *testing.T) {
	lines := []*models.JournalLine{
		line(1, 10, "100.00", "0"),
		line(2, 20, "0", "99.99"),
	}
	assert.NoError(t, ValidateLines(lines))
}

func TestValidateLinesImbalanced(t *testing.T) {
	lines := []*models.JournalLine{
		line(1, 10, "100.00", "0"),
		line(2, 20, "0", "99.00"),
	}
	err := ValidateLines(lines)
	require.Error(t, err)

	var imbalanced *ImbalancedEntryError
	require.True(t, errors.As(err, &imbalanced))
	assert.True(t, imbalanced.DebitTotal.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, imbalanced.CreditTotal.Equal(decimal.RequireFromString("99.00")))
}

func TestValidateLinesRejectsBothSides(t *testing.T) {
	lines := []*models.JournalLine{
		line(1, 10, "50.00", "50.00"),
		line(2, 20, "0", "0"),
	}
	err := ValidateLines(lines)
	require.Error(t, err)

	var invalid *InvalidLineError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 1, invalid.LineNumber)
}

func TestValidateLinesRejectsEmptyLine(t *testing.T) {
	lines := []*models.JournalLine{
		line(1, 10, "100.00", "0"),
		line(2, 20, "0", "0"),
	}
	err := ValidateLines(lines)

	var invalid *InvalidLineError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 2, invalid.LineNumber)
}

func TestValidateLinesRejectsNegative(t *testing.T) {
	lines := []*models.JournalLine{
		line(1, 10, "-100.00", "0"),
		line(2, 20, "0", "-100.00"),
	}
	var invalid *InvalidLineError
	require.True(t, errors.As(ValidateLines(lines), &invalid))
}

func TestValidateLinesRejectsEmptyEntry(t *testing.T) {
	var invalid *InvalidLineError
	require.True(t, errors.As(ValidateLines(nil), &invalid))
}

func TestValidateLinesBalancesInBaseCurrency(t *testing.T) {
	// 100 EUR at 1.10 balances against 110 USD even though the raw
	// amounts differ.
	eur := &models.JournalLine{
		LineNumber: 1,
		AccountID:  10,
		Debit:      decimal.RequireFromString("100.00"),
		Credit:     decimal.Zero,
		Currency:   "EUR",
		FxRate:     decimal.RequireFromString("1.10"),
		BaseDebit:  decimal.RequireFromString("110.00"),
		BaseCredit: decimal.Zero,
	}
	usd := line(2, 20, "0", "110.00")
	assert.NoError(t, ValidateLines([]*models.JournalLine{eur, usd}))
}

func TestTransposeLinesSwapsSides(t *testing.T) {
	original := []*models.JournalLine{
		line(1, 10, "100.00", "0"),
		line(2, 20, "0", "100.00"),
	}
	original[0].Memo = "sale"

	reversed := TransposeLines(original)
	require.Len(t, reversed, 2)

	assert.True(t, reversed[0].Credit.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, reversed[0].Debit.IsZero())
	assert.True(t, reversed[1].Debit.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, int64(10), reversed[0].AccountID)
	assert.Equal(t, "Reversal: sale", reversed[0].Memo)
}

func TestTransposeOfBalancedEntryIsBalanced(t *testing.T) {
	original := []*models.JournalLine{
		line(1, 10, "250.00", "0"),
		line(2, 20, "0", "200.00"),
		line(3, 30, "0", "50.00"),
	}
	require.NoError(t, ValidateLines(original))
	assert.NoError(t, ValidateLines(TransposeLines(original)))
}
