package ledger

import (
	"ledger-service/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateLines enforces the entry-level invariants before anything is
// written:
//
//  1. each line is a pure debit or a pure credit (never both, never
//     negative, never empty);
//  2. the entry balances in base currency: sum(base_debit) equals
//     sum(base_credit) within models.Epsilon. Lines may carry different
//     currencies and fx rates; balance is only checked after conversion.
func ValidateLines(lines []*models.JournalLine) error {
	if len(lines) == 0 {
		return &InvalidLineError{LineNumber: 0, Reason: "entry has no lines"}
	}

	debitTotal := decimal.Zero
	creditTotal := decimal.Zero
	for _, line := range lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return &InvalidLineError{LineNumber: line.LineNumber, Reason: "negative amount"}
		}
		hasDebit := line.Debit.IsPositive()
		hasCredit := line.Credit.IsPositive()
		if hasDebit == hasCredit {
			return &InvalidLineError{LineNumber: line.LineNumber, Reason: "line must have exactly one of debit or credit"}
		}
		debitTotal = debitTotal.Add(line.BaseDebit)
		creditTotal = creditTotal.Add(line.BaseCredit)
	}

	if debitTotal.Sub(creditTotal).Abs().GreaterThan(models.Epsilon) {
		return &ImbalancedEntryError{DebitTotal: debitTotal, CreditTotal: creditTotal}
	}
	return nil
}

// TransposeLines builds the line set of a reversal entry: debit and credit
// swap on every line, everything else carries over. The transpose of a
// balanced entry is balanced.
func TransposeLines(lines []*models.JournalLine) []*models.JournalLine {
	reversed := make([]*models.JournalLine, len(lines))
	for i, line := range lines {
		reversed[i] = &models.JournalLine{
			LineNumber: i + 1,
			AccountID:  line.AccountID,
			Debit:      line.Credit,
			Credit:     line.Debit,
			Currency:   line.Currency,
			FxRate:     line.FxRate,
			BaseDebit:  line.BaseCredit,
			BaseCredit: line.BaseDebit,
			ProjectID:  line.ProjectID,
			Memo:       "Reversal: " + line.Memo,
		}
	}
	return reversed
}
