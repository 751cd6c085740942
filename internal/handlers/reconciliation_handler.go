package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"ledger-service/internal/allocation"
	"ledger-service/internal/matching"
	"ledger-service/internal/models"
	"ledger-service/internal/repositories"
	"ledger-service/internal/services"
)

type ReconciliationHandler struct {
	reconciliationService *services.ReconciliationService
	allocationService     *allocation.Service
}

func NewReconciliationHandler(
	reconciliationService *services.ReconciliationService,
	allocationService *allocation.Service,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		allocationService:     allocationService,
	}
}

func (h *ReconciliationHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := h.reconciliationService.Suggestions(filters)
	if err != nil {
		respondWithError(w, matchErrorCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, suggestions)
}

type autoMatchRequest struct {
	CompanyID       string               `json:"company_id"`
	Type            string               `json:"type"`
	From            string               `json:"from"`
	To              string               `json:"to"`
	CustomerID      string               `json:"customer_id"`
	VendorID        string               `json:"vendor_id"`
	AmountTolerance *decimal.Decimal     `json:"amount_tolerance"`
	MaxDays         *int                 `json:"max_days"`
	MaxCandidates   *int                 `json:"max_candidates"`
	MinScore        *int                 `json:"min_score"`
	CurrencyStrict  bool                 `json:"currency_strict"`
	DryRun          *bool                `json:"dry_run"`
	Selected        []matching.ActionKey `json:"selected"`
}

func (h *ReconciliationHandler) AutoMatch(w http.ResponseWriter, r *http.Request) {
	var request autoMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.CompanyID == "" {
		respondWithError(w, http.StatusBadRequest, "company_id is required")
		return
	}

	filters := services.MatchFilters{
		CompanyID:  request.CompanyID,
		Side:       request.Type,
		CustomerID: request.CustomerID,
		VendorID:   request.VendorID,
		Options:    matching.DefaultOptions(),
	}
	if request.From != "" {
		from, err := time.Parse("2006-01-02", request.From)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid from format. Use YYYY-MM-DD")
			return
		}
		filters.From = &from
	}
	if request.To != "" {
		to, err := time.Parse("2006-01-02", request.To)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid to format. Use YYYY-MM-DD")
			return
		}
		filters.To = &to
	}
	if request.AmountTolerance != nil {
		filters.Options.AmountTolerance = *request.AmountTolerance
	}
	if request.MaxDays != nil {
		filters.Options.MaxDays = *request.MaxDays
	}
	if request.MaxCandidates != nil {
		filters.Options.MaxCandidates = *request.MaxCandidates
	}
	if request.MinScore != nil {
		filters.Options.MinScore = *request.MinScore
	}
	filters.Options.CurrencyStrict = request.CurrencyStrict

	// Dry run is the default: writes only happen when explicitly asked for.
	dryRun := true
	if request.DryRun != nil {
		dryRun = *request.DryRun
	}

	var result *services.MatchResult
	var err error
	if dryRun {
		result, err = h.reconciliationService.PreviewAutoMatch(filters)
	} else {
		result, err = h.reconciliationService.ConfirmAutoMatch(filters, request.Selected)
	}
	if err != nil {
		respondWithError(w, matchErrorCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type createAllocationRequest struct {
	CompanyID    string          `json:"company_id"`
	PaymentType  string          `json:"payment_type"`
	PaymentID    string          `json:"payment_id"`
	DocumentType string          `json:"document_type"`
	DocumentID   string          `json:"document_id"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedBy    string          `json:"created_by"`
}

func (h *ReconciliationHandler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var request createAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	id, err := h.allocationService.Allocate(allocation.Input{
		CompanyID:    request.CompanyID,
		PaymentType:  models.PaymentType(request.PaymentType),
		PaymentID:    request.PaymentID,
		DocumentType: models.DocumentType(request.DocumentType),
		DocumentID:   request.DocumentID,
		Amount:       request.Amount,
		CreatedBy:    request.CreatedBy,
	})
	if err != nil {
		respondWithError(w, allocationErrorCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *ReconciliationHandler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid allocation id")
		return
	}

	if err := h.allocationService.Unallocate(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Allocation not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ReconciliationHandler) UndoBatch(w http.ResponseWriter, r *http.Request) {
	var request struct {
		CompanyID string  `json:"company_id"`
		IDs       []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(request.IDs) == 0 {
		respondWithError(w, http.StatusBadRequest, "No allocation ids provided")
		return
	}

	outcomes, err := h.reconciliationService.UndoAllocationBatch(request.CompanyID, request.IDs)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"outcomes": outcomes,
	})
}

func (h *ReconciliationHandler) GetDocumentAllocations(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	docType := models.DocumentType(vars["type"])
	if !docType.Valid() {
		respondWithError(w, http.StatusBadRequest, "Document type must be invoice or bill")
		return
	}

	allocations, err := h.allocationService.DocumentAllocations(docType, vars["id"])
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := h.allocationService.TotalAllocated(docType, vars["id"])
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"allocations":     allocations,
		"total_allocated": total,
	})
}

func (h *ReconciliationHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid allocation id")
		return
	}

	alloc, err := h.allocationService.Allocation(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Allocation not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, alloc)
}

func (h *ReconciliationHandler) GetRecentAllocations(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		respondWithError(w, http.StatusBadRequest, "company_id query parameter is required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	allocations, err := h.allocationService.RecentAllocations(companyID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, allocations)
}

func (h *ReconciliationHandler) GetUnallocatedAmount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	paymentType := models.PaymentType(vars["type"])
	if !paymentType.Valid() {
		respondWithError(w, http.StatusBadRequest, "Payment type must be receipt or payment")
		return
	}

	unallocated, err := h.allocationService.UnallocatedAmount(paymentType, vars["id"])
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Payment not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"payment_type": paymentType,
		"payment_id":   vars["id"],
		"unallocated":  unallocated,
	})
}

type applyNoteRequest struct {
	CompanyID  string          `json:"company_id"`
	NoteType   string          `json:"note_type"`
	DocumentID string          `json:"document_id"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedBy  string          `json:"created_by"`
}

func (h *ReconciliationHandler) ApplyNote(w http.ResponseWriter, r *http.Request) {
	var request applyNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	input := allocation.Input{
		CompanyID:  request.CompanyID,
		PaymentID:  mux.Vars(r)["id"],
		DocumentID: request.DocumentID,
		Amount:     request.Amount,
		CreatedBy:  request.CreatedBy,
	}

	var id int64
	var err error
	switch models.NoteType(request.NoteType) {
	case models.NoteCredit:
		id, err = h.allocationService.ApplySalesCreditNote(input)
	case models.NoteDebit:
		id, err = h.allocationService.ApplyPurchaseDebitNote(input)
	default:
		respondWithError(w, http.StatusBadRequest, "note_type must be credit_note or debit_note")
		return
	}
	if err != nil {
		respondWithError(w, allocationErrorCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]int64{"allocation_id": id})
}

func filtersFromQuery(r *http.Request) (services.MatchFilters, error) {
	q := r.URL.Query()
	filters := services.MatchFilters{
		CompanyID:  q.Get("company_id"),
		Side:       q.Get("type"),
		CustomerID: q.Get("customer_id"),
		VendorID:   q.Get("vendor_id"),
		Options:    matching.DefaultOptions(),
	}
	if filters.CompanyID == "" {
		return filters, errors.New("company_id query parameter is required")
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filters, errors.New("Invalid from format. Use YYYY-MM-DD")
		}
		filters.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filters, errors.New("Invalid to format. Use YYYY-MM-DD")
		}
		filters.To = &to
	}
	if v := q.Get("amount_tolerance"); v != "" {
		tol, err := decimal.NewFromString(v)
		if err != nil || tol.IsNegative() {
			return filters, errors.New("Invalid amount_tolerance")
		}
		filters.Options.AmountTolerance = tol
	}
	if v := q.Get("max_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 {
			return filters, errors.New("Invalid max_days")
		}
		filters.Options.MaxDays = days
	}
	if v := q.Get("max_candidates"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filters, errors.New("Invalid max_candidates")
		}
		filters.Options.MaxCandidates = n
	}
	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filters, errors.New("Invalid min_score")
		}
		filters.Options.MinScore = n
	}
	filters.Options.CurrencyStrict = q.Get("currency_strict") == "true"
	return filters, nil
}

func matchErrorCode(err error) int {
	var invalid *services.InvalidFilterError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// allocationErrorCode maps allocation failures: malformed input is a bad
// request, an over-allocation or exhausted note is a conflict with current
// document state.
func allocationErrorCode(err error) int {
	var invalid *allocation.InvalidAllocationError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	var over *allocation.OverAllocationError
	var exhausted *allocation.NoteExhaustedError
	if errors.As(err, &over) || errors.As(err, &exhausted) {
		return http.StatusConflict
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
