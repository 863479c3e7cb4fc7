package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/finpulse/finpulse/internal/auth"
)

// HealthReport returns the score, metrics, and recommendations for the
// authenticated user. The current balance comes in as a query parameter
// because account balances are not tracked server-side.
func (h *Handler) HealthReport(w http.ResponseWriter, r *http.Request) {
	balance, err := parseFloat(r.URL.Query().Get("balance"))
	if err != nil {
		http.Error(w, "balance must be a number", http.StatusBadRequest)
		return
	}

	report, err := h.svc.FinancialHealth(r.Context(), auth.UserID(r.Context()), balance)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) CashflowReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	balance, err := parseFloat(q.Get("balance"))
	if err != nil {
		http.Error(w, "balance must be a number", http.StatusBadRequest)
		return
	}
	months := int(parseInt32(q.Get("months"), 0))

	report, err := h.svc.Cashflow(r.Context(), auth.UserID(r.Context()), balance, months)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) TaxReport(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1970 {
			http.Error(w, "year must be a valid calendar year", http.StatusBadRequest)
			return
		}
		year = v
	}

	report, err := h.svc.Tax(r.Context(), auth.UserID(r.Context()), year)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
