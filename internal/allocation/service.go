package allocation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledger-service/internal/models"
	"ledger-service/internal/repositories"
)

// Input describes one allocation of a payment/receipt (or note) amount
// against a document.
type Input struct {
	CompanyID    string              `json:"company_id"`
	PaymentType  models.PaymentType  `json:"payment_type"`
	PaymentID    string              `json:"payment_id"`
	DocumentType models.DocumentType `json:"document_type"`
	DocumentID   string              `json:"document_id"`
	Amount       decimal.Decimal     `json:"amount"`
	CreatedBy    string              `json:"created_by,omitempty"`
}

func (in Input) validate() error {
	if !in.PaymentType.Valid() {
		return &InvalidAllocationError{Reason: fmt.Sprintf("unknown payment type %q", in.PaymentType)}
	}
	if !in.DocumentType.Valid() {
		return &InvalidAllocationError{Reason: fmt.Sprintf("unknown document type %q", in.DocumentType)}
	}
	if !in.Amount.IsPositive() {
		return &InvalidAllocationError{Reason: "amount must be positive"}
	}
	return nil
}

// checkDocumentCompany refuses cross-tenant allocations: the allocation's
// company must be the company owning the document.
func checkDocumentCompany(doc *models.Document, companyID string) error {
	if doc.CompanyID != companyID {
		return &InvalidAllocationError{
			Reason: fmt.Sprintf("%s %s does not belong to company %s", doc.Type, doc.ID, companyID),
		}
	}
	return nil
}

// Service links payments to documents and keeps paid_amount/status derived
// consistently. Every mutation runs in a single transaction holding a row
// lock on the document, so concurrent allocations against the same
// document serialize instead of racing the read-recompute-write cycle.
type Service struct {
	db          *sql.DB
	documents   repositories.DocumentRepository
	payments    repositories.PaymentRepository
	allocations repositories.AllocationRepository
	audit       repositories.AuditSink
}

func NewService(
	db *sql.DB,
	documents repositories.DocumentRepository,
	payments repositories.PaymentRepository,
	allocations repositories.AllocationRepository,
	audit repositories.AuditSink,
) *Service {
	return &Service{
		db:          db,
		documents:   documents,
		payments:    payments,
		allocations: allocations,
		audit:       audit,
	}
}

// Allocate creates the allocation and recomputes the document's
// paid_amount/status in one atomic unit. An allocation that would exceed
// the document total is rejected with OverAllocationError.
func (s *Service) Allocate(input Input) (int64, error) {
	if err := input.validate(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	alloc, err := s.allocateInTx(tx, input, time.Now())
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %v", err)
	}

	s.audit.Record(input.CompanyID, "payment_allocation", fmt.Sprintf("%d", alloc.ID), models.AuditActionCreated, nil, alloc)
	return alloc.ID, nil
}

func (s *Service) allocateInTx(tx *sql.Tx, input Input, now time.Time) (*models.PaymentAllocation, error) {
	doc, err := s.documents.GetDocumentForUpdate(tx, input.DocumentType, input.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", input.DocumentType, input.DocumentID, err)
	}
	if err := checkDocumentCompany(doc, input.CompanyID); err != nil {
		return nil, err
	}

	allocated, err := s.allocations.SumForDocument(tx, input.DocumentType, input.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum allocations: %v", err)
	}

	newTotal := allocated.Add(input.Amount)
	if newTotal.GreaterThan(doc.Total.Add(models.Epsilon)) {
		return nil, &OverAllocationError{
			DocumentType: input.DocumentType,
			DocumentID:   input.DocumentID,
			Total:        doc.Total,
			Allocated:    allocated,
			Requested:    input.Amount,
		}
	}

	alloc := &models.PaymentAllocation{
		CompanyID:       input.CompanyID,
		PaymentType:     input.PaymentType,
		PaymentID:       input.PaymentID,
		DocumentType:    input.DocumentType,
		DocumentID:      input.DocumentID,
		AllocatedAmount: input.Amount,
		AllocationDate:  now,
		CreatedBy:       input.CreatedBy,
	}
	if err := s.allocations.InsertAllocation(tx, alloc); err != nil {
		return nil, fmt.Errorf("failed to insert allocation: %v", err)
	}

	paid, status := DeriveStatus(doc, newTotal, now)
	if err := s.documents.UpdateDocumentStatus(tx, input.DocumentType, input.DocumentID, paid, status); err != nil {
		return nil, fmt.Errorf("failed to update document status: %v", err)
	}

	return alloc, nil
}

// Unallocate deletes the allocation and re-derives the document from the
// remaining allocations, restoring exactly the state a sequence without
// the undone allocation would have produced.
func (s *Service) Unallocate(allocationID int64) error {
	alloc, err := s.allocations.GetAllocationByID(allocationID)
	if err != nil {
		return fmt.Errorf("failed to load allocation %d: %w", allocationID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	doc, err := s.documents.GetDocumentForUpdate(tx, alloc.DocumentType, alloc.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", alloc.DocumentType, alloc.DocumentID, err)
	}

	if err := s.allocations.DeleteAllocation(tx, allocationID); err != nil {
		return fmt.Errorf("failed to delete allocation: %v", err)
	}

	remaining, err := s.allocations.SumForDocument(tx, alloc.DocumentType, alloc.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to sum allocations: %v", err)
	}

	paid, status := DeriveStatus(doc, remaining, time.Now())
	if err := s.documents.UpdateDocumentStatus(tx, alloc.DocumentType, alloc.DocumentID, paid, status); err != nil {
		return fmt.Errorf("failed to update document status: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	s.audit.Record(alloc.CompanyID, "payment_allocation", fmt.Sprintf("%d", allocationID), models.AuditActionDeleted, alloc, nil)
	return nil
}

// Allocation returns a stored allocation by id.
func (s *Service) Allocation(allocationID int64) (*models.PaymentAllocation, error) {
	return s.allocations.GetAllocationByID(allocationID)
}

// TotalAllocated sums all allocations against a document. Read-only view;
// the transactional path uses the locked variant instead.
func (s *Service) TotalAllocated(docType models.DocumentType, docID string) (decimal.Decimal, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()
	return s.allocations.SumForDocument(tx, docType, docID)
}

// UnallocatedAmount returns how much of a payment has not yet been
// allocated to any document.
func (s *Service) UnallocatedAmount(paymentType models.PaymentType, paymentID string) (decimal.Decimal, error) {
	payment, err := s.payments.GetPayment(paymentType, paymentID)
	if err != nil {
		return decimal.Zero, err
	}
	allocated, err := s.allocations.SumForPayment(paymentType, paymentID)
	if err != nil {
		return decimal.Zero, err
	}
	return payment.Amount.Sub(allocated), nil
}

// DocumentAllocations lists the allocation history for a document, newest
// first.
func (s *Service) DocumentAllocations(docType models.DocumentType, docID string) ([]*models.PaymentAllocation, error) {
	return s.allocations.GetAllocationsForDocument(docType, docID)
}

// RecentAllocations lists a company's latest allocations.
func (s *Service) RecentAllocations(companyID string, limit int) ([]*models.PaymentAllocation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.allocations.GetRecentAllocations(companyID, limit)
}
