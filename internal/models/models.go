package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance applied to balance and settlement comparisons.
// Amounts are stored with 2 decimal places; anything closer than one cent
// is treated as equal.
var Epsilon = decimal.RequireFromString("0.01")

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Well-known account subtypes the ledger resolves posting accounts by.
const (
	SubtypeAccountsReceivable = "accounts_receivable"
	SubtypeAccountsPayable    = "accounts_payable"
	SubtypeSalesRevenue       = "sales_revenue"
	SubtypeOperatingExpense   = "operating_expense"
	SubtypeCash               = "cash"
	SubtypeTaxPayable         = "tax_payable"
	SubtypeTaxReceivable      = "tax_receivable"
)

// Account is a row in the chart of accounts. Identity is immutable;
// accounts referenced by journal lines are never deleted.
type Account struct {
	ID        int64       `db:"id" json:"id"`
	CompanyID string      `db:"company_id" json:"company_id"`
	Code      string      `db:"code" json:"code"`
	Name      string      `db:"name" json:"name"`
	Type      AccountType `db:"account_type" json:"account_type"`
	Subtype   string      `db:"account_subtype" json:"account_subtype"`
	IsActive  bool        `db:"is_active" json:"is_active"`
	CreatedAt time.Time   `db:"created_at" json:"-"`
	UpdatedAt time.Time   `db:"updated_at" json:"-"`
}

// SourceType identifies the business event a journal entry originated from.
type SourceType string

const (
	SourceInvoice  SourceType = "invoice"
	SourceBill     SourceType = "bill"
	SourceReceipt  SourceType = "receipt"
	SourcePayment  SourceType = "payment"
	SourceReversal SourceType = "reversal"
	SourceManual   SourceType = "manual"
)

// JournalEntry is a balanced set of debit/credit lines recording one
// business event. Entries are immutable once posted; corrections happen
// via a reversal entry.
type JournalEntry struct {
	ID            int64           `db:"id" json:"id"`
	CompanyID     string          `db:"company_id" json:"company_id"`
	JournalNumber string          `db:"journal_number" json:"journal_number"`
	Date          time.Time       `db:"entry_date" json:"date"`
	SourceType    SourceType      `db:"source_type" json:"source_type"`
	SourceID      string          `db:"source_id" json:"source_id,omitempty"`
	Description   string          `db:"description" json:"description"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedBy     string          `db:"created_by" json:"created_by,omitempty"`
	Lines         []*JournalLine  `db:"-" json:"lines,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"-"`
}

// JournalLine is one side of a journal entry. Exactly one of Debit/Credit
// is non-zero. BaseDebit/BaseCredit carry the amount converted to the
// company's reporting currency; balance is only guaranteed in base currency.
type JournalLine struct {
	ID         int64           `db:"id" json:"id"`
	JournalID  int64           `db:"journal_id" json:"journal_id"`
	LineNumber int             `db:"line_number" json:"line_number"`
	AccountID  int64           `db:"account_id" json:"account_id"`
	Debit      decimal.Decimal `db:"debit" json:"debit"`
	Credit     decimal.Decimal `db:"credit" json:"credit"`
	Currency   string          `db:"currency" json:"currency"`
	FxRate     decimal.Decimal `db:"fx_rate" json:"fx_rate"`
	BaseDebit  decimal.Decimal `db:"base_debit" json:"base_debit"`
	BaseCredit decimal.Decimal `db:"base_credit" json:"base_credit"`
	ProjectID  string          `db:"project_id" json:"project_id,omitempty"`
	Memo       string          `db:"memo" json:"memo,omitempty"`
}

// DocumentType identifies a settleable business document.
type DocumentType string

const (
	DocumentInvoice DocumentType = "invoice"
	DocumentBill    DocumentType = "bill"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	return t == DocumentInvoice || t == DocumentBill
}

// PaymentType identifies the money side of an allocation.
type PaymentType string

const (
	PaymentReceipt PaymentType = "receipt"
	PaymentPayment PaymentType = "payment"
)

// Valid reports whether t is a known payment type.
func (t PaymentType) Valid() bool {
	return t == PaymentReceipt || t == PaymentPayment
}

// DocumentStatus is the settlement state machine for invoices and bills.
type DocumentStatus string

const (
	StatusDraft         DocumentStatus = "draft"
	StatusSent          DocumentStatus = "sent"
	StatusPending       DocumentStatus = "pending"
	StatusOverdue       DocumentStatus = "overdue"
	StatusPartiallyPaid DocumentStatus = "partially_paid"
	StatusPaid          DocumentStatus = "paid"
)

// Document is the registry view of an invoice or bill consumed by the
// allocation engine. PaidAmount is derived from allocations and always
// satisfies 0 <= paid_amount <= total.
type Document struct {
	ID             string          `db:"id" json:"id"`
	CompanyID      string          `db:"company_id" json:"company_id"`
	Type           DocumentType    `db:"document_type" json:"document_type"`
	Number         string          `db:"document_number" json:"document_number"`
	CounterpartyID string          `db:"counterparty_id" json:"counterparty_id"`
	Date           time.Time       `db:"document_date" json:"date"`
	DueDate        *time.Time      `db:"due_date" json:"due_date,omitempty"`
	Total          decimal.Decimal `db:"total" json:"total"`
	PaidAmount     decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	Status         DocumentStatus  `db:"status" json:"status"`
	Currency       string          `db:"currency" json:"currency"`
	FxRate         decimal.Decimal `db:"fx_rate" json:"fx_rate"`
	UpdatedAt      time.Time       `db:"updated_at" json:"-"`
}

// Outstanding returns the unsettled portion of the document, never negative.
func (d *Document) Outstanding() decimal.Decimal {
	out := d.Total.Sub(d.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Payment is the registry view of a receipt or payment offered for
// reconciliation matching.
type Payment struct {
	ID             string          `db:"id" json:"id"`
	CompanyID      string          `db:"company_id" json:"company_id"`
	Type           PaymentType     `db:"payment_type" json:"payment_type"`
	Number         string          `db:"payment_number" json:"payment_number"`
	CounterpartyID string          `db:"counterparty_id" json:"counterparty_id"`
	Date           time.Time       `db:"payment_date" json:"date"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Currency       string          `db:"currency" json:"currency"`
	Reference      string          `db:"reference" json:"reference,omitempty"`
}

// NoteType identifies a credit or debit note.
type NoteType string

const (
	NoteCredit NoteType = "credit_note"
	NoteDebit  NoteType = "debit_note"
)

// NoteStatus is the application state machine for credit/debit notes.
type NoteStatus string

const (
	NoteOpen             NoteStatus = "open"
	NotePartiallyApplied NoteStatus = "partially_applied"
	NoteApplied          NoteStatus = "applied"
)

// Note is a sales credit note or purchase debit note. RemainingAmount is
// the portion not yet applied against a document; it reaches zero exactly
// when status becomes applied.
type Note struct {
	ID              string          `db:"id" json:"id"`
	CompanyID       string          `db:"company_id" json:"company_id"`
	Type            NoteType        `db:"note_type" json:"note_type"`
	Number          string          `db:"note_number" json:"note_number"`
	Total           decimal.Decimal `db:"total" json:"total"`
	RemainingAmount decimal.Decimal `db:"remaining_amount" json:"remaining_amount"`
	Status          NoteStatus      `db:"status" json:"status"`
	UpdatedAt       time.Time       `db:"updated_at" json:"-"`
}

// PaymentAllocation links an amount from a payment/receipt (or note) to a
// document. It has no independent lifecycle: it is created and deleted
// atomically with the recomputation of the document's paid_amount/status.
type PaymentAllocation struct {
	ID              int64           `db:"id" json:"id"`
	CompanyID       string          `db:"company_id" json:"company_id"`
	PaymentType     PaymentType     `db:"payment_type" json:"payment_type"`
	PaymentID       string          `db:"payment_id" json:"payment_id"`
	DocumentType    DocumentType    `db:"document_type" json:"document_type"`
	DocumentID      string          `db:"document_id" json:"document_id"`
	AllocatedAmount decimal.Decimal `db:"allocated_amount" json:"allocated_amount"`
	AllocationDate  time.Time       `db:"allocation_date" json:"allocation_date"`
	CreatedBy       string          `db:"created_by" json:"created_by,omitempty"`
}

// AuditRecord is a fire-and-forget trail entry. Writing it must never fail
// the surrounding business operation.
type AuditRecord struct {
	ID         int64     `db:"id" json:"id"`
	CompanyID  string    `db:"company_id" json:"company_id"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	Action     string    `db:"action" json:"action"`
	Before     []byte    `db:"before_state" json:"before,omitempty"`
	After      []byte    `db:"after_state" json:"after,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
}

// AuditAction constants
const (
	AuditActionCreated  = "created"
	AuditActionDeleted  = "deleted"
	AuditActionReversed = "reversed"
)
