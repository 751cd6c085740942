package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"ledger-service/internal/accounts"
	"ledger-service/internal/allocation"
	"ledger-service/internal/config"
	"ledger-service/internal/ledger"
	"ledger-service/internal/repositories"
	"ledger-service/internal/services"
)

func SetupRouter(db *sql.DB, cfg *config.Config) *mux.Router {
	accountRepo := repositories.NewAccountRepository(db)
	journalRepo := repositories.NewJournalRepository(db)
	documentRepo := repositories.NewDocumentRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	allocationRepo := repositories.NewAllocationRepository(db)
	sequenceRepo := repositories.NewSequenceRepository(db)
	auditSink := repositories.NewAuditRepository(db)

	directory := accounts.NewDirectory(accountRepo)
	ledgerService := ledger.NewService(db, journalRepo, sequenceRepo, directory, auditSink)
	allocationService := allocation.NewService(db, documentRepo, paymentRepo, allocationRepo, auditSink)
	reconciliationService := services.NewReconciliationService(paymentRepo, documentRepo, allocationRepo, allocationService)

	accountHandler := NewAccountHandler(db, accountRepo, directory)
	journalHandler := NewJournalHandler(ledgerService)
	reconciliationHandler := NewReconciliationHandler(reconciliationService, allocationService)

	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()

	api.Use(loggingMiddleware)
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/accounts", accountHandler.ListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", accountHandler.CreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id:[0-9]+}", accountHandler.UpdateAccount).Methods(http.MethodPut)

	api.HandleFunc("/journals", journalHandler.PostJournal).Methods(http.MethodPost)
	api.HandleFunc("/journals", journalHandler.ListJournals).Methods(http.MethodGet)
	api.HandleFunc("/journals/{id:[0-9]+}", journalHandler.GetJournal).Methods(http.MethodGet)
	api.HandleFunc("/journals/{id:[0-9]+}/reverse", journalHandler.ReverseJournal).Methods(http.MethodPost)
	api.HandleFunc("/ledger/documents/{kind}", journalHandler.PostDocumentEntry).Methods(http.MethodPost)

	api.HandleFunc("/reconciliation/suggestions", reconciliationHandler.GetSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/reconciliation/auto-match", reconciliationHandler.AutoMatch).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/allocations", reconciliationHandler.CreateAllocation).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/allocations/undo-batch", reconciliationHandler.UndoBatch).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/allocations/recent", reconciliationHandler.GetRecentAllocations).Methods(http.MethodGet)
	api.HandleFunc("/reconciliation/allocations/{id:[0-9]+}", reconciliationHandler.GetAllocation).Methods(http.MethodGet)
	api.HandleFunc("/reconciliation/allocations/{id:[0-9]+}", reconciliationHandler.DeleteAllocation).Methods(http.MethodDelete)
	api.HandleFunc("/reconciliation/payments/{type}/{id}/unallocated", reconciliationHandler.GetUnallocatedAmount).Methods(http.MethodGet)
	api.HandleFunc("/reconciliation/documents/{type}/{id}/allocations", reconciliationHandler.GetDocumentAllocations).Methods(http.MethodGet)
	api.HandleFunc("/reconciliation/notes/{id}/apply", reconciliationHandler.ApplyNote).Methods(http.MethodPost)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
