package services

import (
	"fmt"
	"log"
	"time"

	"ledger-service/internal/allocation"
	"ledger-service/internal/matching"
	"ledger-service/internal/models"
	"ledger-service/internal/repositories"
)

// MatchFilters scope an auto-match or suggestion run.
type MatchFilters struct {
	CompanyID  string
	Side       string // "receipts", "payments" or "both"
	From       *time.Time
	To         *time.Time
	CustomerID string
	VendorID   string
	Options    matching.Options
}

// InvalidFilterError rejects malformed match filters before any data is
// fetched.
type InvalidFilterError struct {
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return "invalid match filters: " + e.Reason
}

func (f *MatchFilters) normalize() error {
	if f.Side == "" {
		f.Side = "both"
	}
	switch f.Side {
	case "receipts", "payments", "both":
	default:
		return &InvalidFilterError{Reason: fmt.Sprintf("type must be receipts, payments or both, got %q", f.Side)}
	}
	zero := matching.Options{}
	if f.Options == zero {
		f.Options = matching.DefaultOptions()
	}
	return nil
}

// MatchResult is the outcome of a preview or confirm run.
type MatchResult struct {
	DryRun        bool               `json:"dry_run"`
	Actions       []*matching.Action `json:"actions"`
	AllocationIDs []int64            `json:"created_allocation_ids,omitempty"`
	Summary       MatchSummary       `json:"summary"`
}

// MatchSummary counts per-status outcomes for the UI.
type MatchSummary struct {
	TotalCandidates int `json:"total_candidates"`
	WouldAllocate   int `json:"would_allocate"`
	Allocated       int `json:"allocated"`
	Skipped         int `json:"skipped"`
	Failed          int `json:"failed"`
}

// UndoOutcome is the per-allocation result of a batch undo.
type UndoOutcome struct {
	AllocationID int64  `json:"allocation_id"`
	Undone       bool   `json:"undone"`
	Error        string `json:"error,omitempty"`
}

// ReconciliationService drives the preview/confirm/undo matching protocol
// on top of the allocation engine. Preview is a pure read; confirm
// recomputes from an authoritative fresh snapshot before every write so a
// retried confirm can never double-allocate.
type ReconciliationService struct {
	payments    repositories.PaymentRepository
	documents   repositories.DocumentRepository
	allocations repositories.AllocationRepository
	allocator   *allocation.Service
}

func NewReconciliationService(
	payments repositories.PaymentRepository,
	documents repositories.DocumentRepository,
	allocations repositories.AllocationRepository,
	allocator *allocation.Service,
) *ReconciliationService {
	return &ReconciliationService{
		payments:    payments,
		documents:   documents,
		allocations: allocations,
		allocator:   allocator,
	}
}

// Suggestions returns the ranked candidate lists for every open payment in
// scope, for interactive matching.
func (s *ReconciliationService) Suggestions(filters MatchFilters) (map[string][]*matching.Suggestion, error) {
	if err := filters.normalize(); err != nil {
		return nil, err
	}
	result := make(map[string][]*matching.Suggestion)

	if filters.Side == "receipts" || filters.Side == "both" {
		payments, docs, err := s.fetchPools(filters, models.PaymentReceipt)
		if err != nil {
			return nil, err
		}
		result["receipts"] = matching.Suggest(payments, docs, filters.Options)
	}
	if filters.Side == "payments" || filters.Side == "both" {
		payments, docs, err := s.fetchPools(filters, models.PaymentPayment)
		if err != nil {
			return nil, err
		}
		result["payments"] = matching.Suggest(payments, docs, filters.Options)
	}
	return result, nil
}

// PreviewAutoMatch computes the action list without writing anything.
// It is safe to cancel or retry.
func (s *ReconciliationService) PreviewAutoMatch(filters MatchFilters) (*MatchResult, error) {
	if err := filters.normalize(); err != nil {
		return nil, err
	}
	actions, err := s.computeActions(filters)
	if err != nil {
		return nil, err
	}
	result := &MatchResult{DryRun: true, Actions: actions}
	result.Summary = summarize(actions)
	return result, nil
}

// ConfirmAutoMatch recomputes the action list from a fresh snapshot and
// allocates exactly the selected actions that are still would-allocate.
// Actions whose status changed since preview (another request settled the
// document, say) are skipped without error. Per-action failures are
// collected; the batch never aborts.
func (s *ReconciliationService) ConfirmAutoMatch(filters MatchFilters, selected []matching.ActionKey) (*MatchResult, error) {
	if err := filters.normalize(); err != nil {
		return nil, err
	}
	actions, err := s.computeActions(filters)
	if err != nil {
		return nil, err
	}

	selectedSet := matching.ApplySelection(actions, selected)

	result := &MatchResult{DryRun: false, Actions: actions}
	for _, a := range actions {
		if a.Status != matching.ActionWouldAllocate {
			continue
		}
		if selectedSet != nil && !selectedSet[a.Key().String()] {
			continue
		}
		id, err := s.allocator.Allocate(allocation.Input{
			CompanyID:    filters.CompanyID,
			PaymentType:  a.PaymentType,
			PaymentID:    a.PaymentID,
			DocumentType: a.DocumentType,
			DocumentID:   a.DocumentID,
			Amount:       a.Amount,
		})
		if err != nil {
			a.Status = matching.ActionFailed
			a.Error = err.Error()
			log.Printf("auto-match allocation failed for %s: %v", a.Key(), err)
			continue
		}
		a.Status = matching.ActionAllocated
		a.AllocationID = id
		result.AllocationIDs = append(result.AllocationIDs, id)
	}

	result.Summary = summarize(actions)
	return result, nil
}

// UndoAllocationBatch unallocates each id, logging and continuing past
// individual failures, and reports a per-id outcome. Duplicate ids are
// collapsed to avoid double work.
func (s *ReconciliationService) UndoAllocationBatch(companyID string, ids []int64) ([]UndoOutcome, error) {
	seen := make(map[int64]bool, len(ids))
	var outcomes []UndoOutcome
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		alloc, err := s.allocations.GetAllocationByID(id)
		if err != nil {
			outcomes = append(outcomes, UndoOutcome{AllocationID: id, Error: "not found"})
			continue
		}
		if alloc.CompanyID != companyID {
			outcomes = append(outcomes, UndoOutcome{AllocationID: id, Error: "forbidden"})
			continue
		}
		if err := s.allocator.Unallocate(id); err != nil {
			log.Printf("batch undo failed for allocation %d: %v", id, err)
			outcomes = append(outcomes, UndoOutcome{AllocationID: id, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, UndoOutcome{AllocationID: id, Undone: true})
	}
	return outcomes, nil
}

// computeActions builds the action list from current data. Both preview
// and confirm go through here, so the two phases can only differ by what
// changed in storage in between.
func (s *ReconciliationService) computeActions(filters MatchFilters) ([]*matching.Action, error) {
	var actions []*matching.Action

	if filters.Side == "receipts" || filters.Side == "both" {
		payments, docs, err := s.fetchPools(filters, models.PaymentReceipt)
		if err != nil {
			return nil, err
		}
		actions = append(actions, matching.ComputeActions(payments, docs, filters.Options)...)
	}
	if filters.Side == "payments" || filters.Side == "both" {
		payments, docs, err := s.fetchPools(filters, models.PaymentPayment)
		if err != nil {
			return nil, err
		}
		actions = append(actions, matching.ComputeActions(payments, docs, filters.Options)...)
	}
	return actions, nil
}

// fetchPools loads the open payment and document snapshots for one side:
// receipts settle invoices, payments settle bills.
func (s *ReconciliationService) fetchPools(filters MatchFilters, side models.PaymentType) ([]matching.OpenPayment, []matching.OpenDocument, error) {
	docType := models.DocumentInvoice
	counterparty := filters.CustomerID
	if side == models.PaymentPayment {
		docType = models.DocumentBill
		counterparty = filters.VendorID
	}

	rows, err := s.payments.GetPaymentsByCompany(filters.CompanyID, side, filters.From, filters.To, counterparty)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %ss: %v", side, err)
	}
	var payments []matching.OpenPayment
	for _, p := range rows {
		allocated, err := s.allocations.SumForPayment(p.Type, p.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to sum allocations for %s %s: %v", p.Type, p.ID, err)
		}
		payments = append(payments, matching.OpenPayment{
			Payment:     p,
			Unallocated: p.Amount.Sub(allocated),
		})
	}

	docRows, err := s.documents.GetOpenDocuments(filters.CompanyID, docType, counterparty)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load open %ss: %v", docType, err)
	}
	var docs []matching.OpenDocument
	for _, d := range docRows {
		docs = append(docs, matching.OpenDocument{
			Document:    d,
			Outstanding: d.Outstanding(),
		})
	}
	return payments, docs, nil
}

func summarize(actions []*matching.Action) MatchSummary {
	s := MatchSummary{TotalCandidates: len(actions)}
	for _, a := range actions {
		switch a.Status {
		case matching.ActionWouldAllocate:
			s.WouldAllocate++
		case matching.ActionAllocated:
			s.Allocated++
		case matching.ActionSkipped:
			s.Skipped++
		case matching.ActionFailed:
			s.Failed++
		}
	}
	return s
}
