package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ledger-service/internal/accounts"
	"ledger-service/internal/models"
	"ledger-service/internal/repositories"
)

type AccountHandler struct {
	db        *sql.DB
	accounts  repositories.AccountRepository
	directory *accounts.Directory
}

func NewAccountHandler(db *sql.DB, repo repositories.AccountRepository, directory *accounts.Directory) *AccountHandler {
	return &AccountHandler{db: db, accounts: repo, directory: directory}
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		respondWithError(w, http.StatusBadRequest, "company_id query parameter is required")
		return
	}

	list, err := h.directory.Accounts(companyID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

type createAccountRequest struct {
	CompanyID string `json:"company_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"account_type"`
	Subtype   string `json:"account_subtype"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var request createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.CompanyID == "" || request.Code == "" || request.Name == "" {
		respondWithError(w, http.StatusBadRequest, "company_id, code and name are required")
		return
	}

	account := &models.Account{
		CompanyID: request.CompanyID,
		Code:      request.Code,
		Name:      request.Name,
		Type:      models.AccountType(request.Type),
		Subtype:   request.Subtype,
		IsActive:  true,
	}

	tx, err := h.db.Begin()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer tx.Rollback()

	if err := h.accounts.InsertAccount(tx, account); err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create account: %v", err))
		return
	}
	if err := tx.Commit(); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.directory.Invalidate(request.CompanyID)
	respondWithJSON(w, http.StatusCreated, account)
}

type updateAccountRequest struct {
	Name     *string `json:"name"`
	Subtype  *string `json:"account_subtype"`
	IsActive *bool   `json:"is_active"`
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	var request updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	account, err := h.accounts.GetAccountByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if request.Name != nil {
		account.Name = *request.Name
	}
	if request.Subtype != nil {
		account.Subtype = *request.Subtype
	}
	if request.IsActive != nil {
		account.IsActive = *request.IsActive
	}

	tx, err := h.db.Begin()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer tx.Rollback()

	if err := h.accounts.UpdateAccount(tx, account); err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update account: %v", err))
		return
	}
	if err := tx.Commit(); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.directory.Invalidate(account.CompanyID)
	respondWithJSON(w, http.StatusOK, account)
}
