package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ImbalancedEntryError rejects an entry whose base-currency debits and
// credits differ by more than the balance tolerance. Nothing is written
// when it is returned.
type ImbalancedEntryError struct {
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
}

func (e *ImbalancedEntryError) Error() string {
	return fmt.Sprintf("journal entry must balance: debits=%s, credits=%s",
		e.DebitTotal.StringFixed(2), e.CreditTotal.StringFixed(2))
}

// UnknownAccountError rejects an entry referencing a missing or inactive
// account.
type UnknownAccountError struct {
	AccountID int64
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown or inactive account %d", e.AccountID)
}

// InvalidLineError rejects a line that is not a pure debit or pure credit.
type InvalidLineError struct {
	LineNumber int
	Reason     string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("journal line %d: %s", e.LineNumber, e.Reason)
}
