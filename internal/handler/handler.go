// Package handler exposes the finance service over JSON HTTP routes.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/finpulse/finpulse/internal/auth"
	"github.com/finpulse/finpulse/internal/engine"
	"github.com/finpulse/finpulse/internal/model"
	"github.com/finpulse/finpulse/internal/service"
	"github.com/finpulse/finpulse/internal/store"
)

type Handler struct {
	svc    *service.FinanceService
	tokens *auth.TokenManager
	logger *logrus.Logger
}

func NewHandler(svc *service.FinanceService, tokens *auth.TokenManager, logger *logrus.Logger) *Handler {
	return &Handler{svc: svc, tokens: tokens, logger: logger}
}

// RegisterRoutes mounts all routes on the router. Everything except
// registration, login, and the health probe sits behind the auth middleware.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.Healthz).Methods("GET")
	router.HandleFunc("/auth/register", h.Register).Methods("POST")
	router.HandleFunc("/auth/login", h.Login).Methods("POST")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Middleware(h.tokens, h.logger))

	api.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	api.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	api.HandleFunc("/transactions/sync", h.SyncTransactions).Methods("POST")
	api.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods("PUT")
	api.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")

	api.HandleFunc("/debts", h.ListDebts).Methods("GET")
	api.HandleFunc("/debts", h.CreateDebt).Methods("POST")
	api.HandleFunc("/debts/{id}", h.DeleteDebt).Methods("DELETE")

	api.HandleFunc("/goals", h.ListGoals).Methods("GET")
	api.HandleFunc("/goals", h.CreateGoal).Methods("POST")
	api.HandleFunc("/goals/{id}", h.UpdateGoal).Methods("PUT")
	api.HandleFunc("/goals/{id}", h.DeleteGoal).Methods("DELETE")

	api.HandleFunc("/reports/health", h.HealthReport).Methods("GET")
	api.HandleFunc("/reports/cashflow", h.CashflowReport).Methods("GET")
	api.HandleFunc("/reports/tax", h.TaxReport).Methods("GET")
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Auth

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || len(req.Password) < 8 {
		http.Error(w, "email and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "user_id": user.ID})
}

// Transactions

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	q := r.URL.Query()

	var start, end *time.Time
	if t, ok := parseDate(q.Get("start")); ok {
		start = &t
	}
	if t, ok := parseDate(q.Get("end")); ok {
		end = &t
	}
	pageSize := parseInt32(q.Get("page_size"), 100)

	txns, nextToken, err := h.svc.ListTransactions(r.Context(), userID, start, end, pageSize, q.Get("page_token"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions":    txns,
		"next_page_token": nextToken,
	})
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var txn model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	txn.UserID = auth.UserID(r.Context())

	if err := h.svc.AddTransaction(r.Context(), &txn); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.ownedTransaction(w, r)
	if !ok {
		return
	}

	var txn model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	txn.ID = existing.ID
	txn.UserID = existing.UserID

	if err := h.svc.UpdateTransaction(r.Context(), &txn); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.ownedTransaction(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTransaction(r.Context(), existing.ID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedTransaction loads the path transaction and enforces that it belongs
// to the authenticated user. Foreign IDs read as not found.
func (h *Handler) ownedTransaction(w http.ResponseWriter, r *http.Request) (*model.Transaction, bool) {
	txn, err := h.svc.GetTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	if txn.UserID != auth.UserID(r.Context()) {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, false
	}
	return txn, true
}

type syncRequest struct {
	AccountID string `json:"account_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

func (h *Handler) SyncTransactions(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AccountID == "" {
		http.Error(w, "account_id is required", http.StatusBadRequest)
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, -3, 0)
	if t, ok := parseDate(req.Start); ok {
		start = t
	}
	if t, ok := parseDate(req.End); ok {
		end = t
	}

	inserted, err := h.svc.SyncBankTransactions(r.Context(), auth.UserID(r.Context()), req.AccountID, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}

// Debts

func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.svc.ListDebts(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"debts": debts})
}

func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var debt model.Debt
	if err := json.NewDecoder(r.Body).Decode(&debt); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	debt.UserID = auth.UserID(r.Context())

	if err := h.svc.AddDebt(r.Context(), &debt); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, debt)
}

func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	debt, err := h.svc.GetDebt(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if debt.UserID != auth.UserID(r.Context()) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err := h.svc.DeleteDebt(r.Context(), debt.ID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Goals

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.ListGoals(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var goal model.FinancialGoal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	goal.UserID = auth.UserID(r.Context())

	if err := h.svc.CreateGoal(r.Context(), &goal); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}

	var goal model.FinancialGoal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	goal.ID = existing.ID
	goal.UserID = existing.UserID

	if err := h.svc.UpdateGoal(r.Context(), &goal); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteGoal(r.Context(), existing.ID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedGoal loads the path goal and enforces that it belongs to the
// authenticated user. Foreign IDs read as not found.
func (h *Handler) ownedGoal(w http.ResponseWriter, r *http.Request) (*model.FinancialGoal, bool) {
	goal, err := h.svc.GetGoal(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	if goal.UserID != auth.UserID(r.Context()) {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, false
	}
	return goal, true
}

// helpers

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrInsufficientData):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrDuplicate):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		h.logger.WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseInt32(s string, def int32) int32 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil || v <= 0 {
		return def
	}
	return int32(v)
}
