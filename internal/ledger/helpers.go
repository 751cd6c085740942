package ledger

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger-service/internal/models"
)

// PostingResult distinguishes a posted entry from a skipped one. Posting
// from a business document is best-effort: when the company has not
// configured the required accounts the document operation proceeds and the
// result reports Skipped with a reason instead of failing.
type PostingResult struct {
	Ref     *JournalRef `json:"ref,omitempty"`
	Skipped bool        `json:"skipped"`
	Reason  string      `json:"reason,omitempty"`
}

func skipped(reason string) *PostingResult {
	log.Printf("journal posting skipped: %s", reason)
	return &PostingResult{Skipped: true, Reason: reason}
}

// DocumentInput carries the figures shared by the document posting helpers.
type DocumentInput struct {
	CompanyID string
	SourceID  string
	Number    string
	Subtotal  decimal.Decimal
	TaxTotal  decimal.Decimal
	Total     decimal.Decimal
	Date      time.Time
	Currency  string
	FxRate    decimal.Decimal
	CreatedBy string
	ProjectID string
}

// PostInvoiceEntry records a sales invoice:
// DR accounts receivable (total), CR sales revenue (subtotal),
// CR tax payable (tax, when configured).
func (s *Service) PostInvoiceEntry(input DocumentInput) (*PostingResult, error) {
	ar, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeAccountsReceivable)
	if err != nil {
		return nil, err
	}
	revenue, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeSalesRevenue)
	if err != nil {
		return nil, err
	}
	if ar == nil || revenue == nil {
		return skipped(fmt.Sprintf("invoice %s: receivable or revenue account not configured", input.Number)), nil
	}

	lines := []LineInput{
		{AccountID: ar.ID, Debit: input.Total, Memo: fmt.Sprintf("Invoice %s - Customer Receivable", input.Number)},
		{AccountID: revenue.ID, Credit: input.Subtotal, Memo: fmt.Sprintf("Invoice %s - Sales Revenue", input.Number), ProjectID: input.ProjectID},
	}
	if input.TaxTotal.IsPositive() {
		taxPayable, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeTaxPayable)
		if err != nil {
			return nil, err
		}
		if taxPayable != nil {
			lines = append(lines, LineInput{
				AccountID: taxPayable.ID,
				Credit:    input.TaxTotal,
				Memo:      fmt.Sprintf("Invoice %s - Tax Payable", input.Number),
			})
		}
	}

	return s.postDocument(input, models.SourceInvoice, fmt.Sprintf("Sales Invoice %s", input.Number), lines)
}

// PostBillEntry records a purchase bill:
// DR operating expense (subtotal), DR tax receivable (tax, when
// configured), CR accounts payable (total).
func (s *Service) PostBillEntry(input DocumentInput) (*PostingResult, error) {
	ap, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeAccountsPayable)
	if err != nil {
		return nil, err
	}
	expense, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeOperatingExpense)
	if err != nil {
		return nil, err
	}
	if ap == nil || expense == nil {
		return skipped(fmt.Sprintf("bill %s: payable or expense account not configured", input.Number)), nil
	}

	lines := []LineInput{
		{AccountID: expense.ID, Debit: input.Subtotal, Memo: fmt.Sprintf("Bill %s - Purchase Expense", input.Number), ProjectID: input.ProjectID},
	}
	if input.TaxTotal.IsPositive() {
		taxReceivable, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeTaxReceivable)
		if err != nil {
			return nil, err
		}
		if taxReceivable != nil {
			lines = append(lines, LineInput{
				AccountID: taxReceivable.ID,
				Debit:     input.TaxTotal,
				Memo:      fmt.Sprintf("Bill %s - Input Tax", input.Number),
			})
		}
	}
	lines = append(lines, LineInput{
		AccountID: ap.ID,
		Credit:    input.Total,
		Memo:      fmt.Sprintf("Bill %s - Accounts Payable", input.Number),
	})

	return s.postDocument(input, models.SourceBill, fmt.Sprintf("Purchase Bill %s", input.Number), lines)
}

// PostReceiptEntry records cash received against receivables:
// DR cash, CR accounts receivable.
func (s *Service) PostReceiptEntry(input DocumentInput) (*PostingResult, error) {
	ar, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeAccountsReceivable)
	if err != nil {
		return nil, err
	}
	cash, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeCash)
	if err != nil {
		return nil, err
	}
	if ar == nil || cash == nil {
		return skipped(fmt.Sprintf("receipt %s: receivable or cash account not configured", input.Number)), nil
	}

	lines := []LineInput{
		{AccountID: cash.ID, Debit: input.Total, Memo: fmt.Sprintf("Receipt %s - Cash Received", input.Number)},
		{AccountID: ar.ID, Credit: input.Total, Memo: fmt.Sprintf("Receipt %s - Reduce Receivable", input.Number)},
	}

	return s.postDocument(input, models.SourceReceipt, fmt.Sprintf("Customer Receipt %s", input.Number), lines)
}

// PostPaymentEntry records cash paid against payables:
// DR accounts payable, CR cash.
func (s *Service) PostPaymentEntry(input DocumentInput) (*PostingResult, error) {
	ap, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeAccountsPayable)
	if err != nil {
		return nil, err
	}
	cash, err := s.directory.FindBySubtype(input.CompanyID, models.SubtypeCash)
	if err != nil {
		return nil, err
	}
	if ap == nil || cash == nil {
		return skipped(fmt.Sprintf("payment %s: payable or cash account not configured", input.Number)), nil
	}

	lines := []LineInput{
		{AccountID: ap.ID, Debit: input.Total, Memo: fmt.Sprintf("Payment %s - Reduce Payable", input.Number)},
		{AccountID: cash.ID, Credit: input.Total, Memo: fmt.Sprintf("Payment %s - Cash Paid", input.Number)},
	}

	return s.postDocument(input, models.SourcePayment, fmt.Sprintf("Vendor Payment %s", input.Number), lines)
}

func (s *Service) postDocument(input DocumentInput, sourceType models.SourceType, description string, lines []LineInput) (*PostingResult, error) {
	ref, err := s.Post(EntryInput{
		CompanyID:   input.CompanyID,
		Date:        input.Date,
		SourceType:  sourceType,
		SourceID:    input.SourceID,
		Description: description,
		Currency:    input.Currency,
		FxRate:      input.FxRate,
		CreatedBy:   input.CreatedBy,
		Lines:       lines,
	})
	if err != nil {
		// Document creation must not fail on bookkeeping problems; surface
		// validation failures as a skip, bubble up infrastructure errors.
		var imbalanced *ImbalancedEntryError
		var unknown *UnknownAccountError
		if errors.As(err, &imbalanced) || errors.As(err, &unknown) {
			return skipped(fmt.Sprintf("%s %s: %v", strings.ToLower(description), input.Number, err)), nil
		}
		return nil, err
	}
	return &PostingResult{Ref: ref}, nil
}
