package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"ledger-service/internal/ledger"
	"ledger-service/internal/models"
	"ledger-service/internal/repositories"
)

type JournalHandler struct {
	ledgerService *ledger.Service
}

func NewJournalHandler(ledgerService *ledger.Service) *JournalHandler {
	return &JournalHandler{ledgerService: ledgerService}
}

type postJournalRequest struct {
	CompanyID   string             `json:"company_id"`
	Date        string             `json:"date"`
	SourceType  string             `json:"source_type"`
	SourceID    string             `json:"source_id"`
	Description string             `json:"description"`
	Currency    string             `json:"currency"`
	FxRate      decimal.Decimal    `json:"fx_rate"`
	CreatedBy   string             `json:"created_by"`
	Lines       []ledger.LineInput `json:"lines"`
}

func (h *JournalHandler) PostJournal(w http.ResponseWriter, r *http.Request) {
	var request postJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.CompanyID == "" {
		respondWithError(w, http.StatusBadRequest, "company_id is required")
		return
	}
	date, err := time.Parse("2006-01-02", request.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	if len(request.Lines) == 0 {
		respondWithError(w, http.StatusBadRequest, "At least one journal line is required")
		return
	}

	ref, err := h.ledgerService.Post(ledger.EntryInput{
		CompanyID:   request.CompanyID,
		Date:        date,
		SourceType:  models.SourceType(request.SourceType),
		SourceID:    request.SourceID,
		Description: request.Description,
		Currency:    request.Currency,
		FxRate:      request.FxRate,
		CreatedBy:   request.CreatedBy,
		Lines:       request.Lines,
	})
	if err != nil {
		respondWithError(w, ledgerErrorCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, ref)
}

func (h *JournalHandler) GetJournal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid journal id")
		return
	}

	entry, err := h.ledgerService.Entry(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Journal entry not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

func (h *JournalHandler) ReverseJournal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid journal id")
		return
	}

	var request struct {
		ReversalDate string `json:"reversal_date"`
		Reason       string `json:"reason"`
		CreatedBy    string `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	date, err := time.Parse("2006-01-02", request.ReversalDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid reversal_date format. Use YYYY-MM-DD")
		return
	}

	ref, err := h.ledgerService.Reverse(id, date, request.Reason, request.CreatedBy)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Journal entry not found")
			return
		}
		respondWithError(w, ledgerErrorCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, ref)
}

func (h *JournalHandler) ListJournals(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		respondWithError(w, http.StatusBadRequest, "company_id query parameter is required")
		return
	}

	entries, err := h.ledgerService.EntriesByCompany(companyID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

type postDocumentEntryRequest struct {
	CompanyID string          `json:"company_id"`
	SourceID  string          `json:"source_id"`
	Number    string          `json:"number"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxTotal  decimal.Decimal `json:"tax_total"`
	Total     decimal.Decimal `json:"total"`
	Date      string          `json:"date"`
	Currency  string          `json:"currency"`
	FxRate    decimal.Decimal `json:"fx_rate"`
	CreatedBy string          `json:"created_by"`
	ProjectID string          `json:"project_id"`
}

// PostDocumentEntry books the journal entry for a business document. The
// document itself lives elsewhere; this only records its ledger impact.
func (h *JournalHandler) PostDocumentEntry(w http.ResponseWriter, r *http.Request) {
	var request postDocumentEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.CompanyID == "" {
		respondWithError(w, http.StatusBadRequest, "company_id is required")
		return
	}
	date, err := time.Parse("2006-01-02", request.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	input := ledger.DocumentInput{
		CompanyID: request.CompanyID,
		SourceID:  request.SourceID,
		Number:    request.Number,
		Subtotal:  request.Subtotal,
		TaxTotal:  request.TaxTotal,
		Total:     request.Total,
		Date:      date,
		Currency:  request.Currency,
		FxRate:    request.FxRate,
		CreatedBy: request.CreatedBy,
		ProjectID: request.ProjectID,
	}

	var result *ledger.PostingResult
	switch mux.Vars(r)["kind"] {
	case "invoice":
		result, err = h.ledgerService.PostInvoiceEntry(input)
	case "bill":
		result, err = h.ledgerService.PostBillEntry(input)
	case "receipt":
		result, err = h.ledgerService.PostReceiptEntry(input)
	case "payment":
		result, err = h.ledgerService.PostPaymentEntry(input)
	default:
		respondWithError(w, http.StatusBadRequest, "Document kind must be invoice, bill, receipt or payment")
		return
	}
	if err != nil {
		respondWithError(w, ledgerErrorCode(err), err.Error())
		return
	}

	code := http.StatusCreated
	if result.Skipped {
		code = http.StatusOK
	}
	respondWithJSON(w, code, result)
}

// ledgerErrorCode maps posting failures: validation problems are the
// caller's to fix, everything else is a server fault.
func ledgerErrorCode(err error) int {
	var imbalanced *ledger.ImbalancedEntryError
	var unknown *ledger.UnknownAccountError
	var invalid *ledger.InvalidLineError
	if errors.As(err, &imbalanced) || errors.As(err, &unknown) || errors.As(err, &invalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
