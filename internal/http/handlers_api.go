package http

import (
	"log/slog"
	"net/http"
)

// balancePayload mirrors the dashboard figures as JSON. Amounts are
// decimal units, not cents.
type balancePayload struct {
	Balance       float64 `json:"balance"`
	MonthlySpend  float64 `json:"monthly_spend"`
	MonthlyIncome float64 `json:"monthly_income"`
}

type transactionPayload struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

type categoryDataPayload struct {
	Labels  []string  `json:"labels"`
	Amounts []float64 `json:"amounts"`
}

// handleAPIBalance returns the overall balance and the selected month's
// spending and income.
func (s *Server) handleAPIBalance(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}

	mp := ParseMonthParams(r.URL.Query())

	balance, err := s.store.Balance(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance read error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "balance unavailable"})
		return
	}

	summary, err := s.getMonthSummary(r.Context(), mp.Year, mp.Month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month summary error", "error", err, "year", mp.Year, "month", mp.Month)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "summary unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, balancePayload{
		Balance:       balance.Units(),
		MonthlySpend:  summary.Spending.Units(),
		MonthlyIncome: summary.Income.Units(),
	})
}

// handleAPITransactions returns every transaction in display order.
func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}

	items, err := s.getTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "transactions unavailable"})
		return
	}

	payload := make([]transactionPayload, 0, len(items))
	for _, t := range items {
		payload = append(payload, transactionPayload{
			ID:          t.ID,
			Date:        t.Date.ISO(),
			Amount:      t.Amount.Units(),
			Category:    t.Category,
			Description: t.Description,
		})
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleAPICategoryData returns the month's expense breakdown shaped for
// the dashboard chart.
func (s *Server) handleAPICategoryData(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}

	mp := ParseMonthParams(r.URL.Query())

	summary, err := s.getMonthSummary(r.Context(), mp.Year, mp.Month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month summary error", "error", err, "year", mp.Year, "month", mp.Month)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "summary unavailable"})
		return
	}

	payload := categoryDataPayload{
		Labels:  make([]string, 0, len(summary.ByCategory)),
		Amounts: make([]float64, 0, len(summary.ByCategory)),
	}
	for _, c := range summary.ByCategory {
		payload.Labels = append(payload.Labels, c.Name)
		payload.Amounts = append(payload.Amounts, c.Amount.Units())
	}

	writeJSON(w, http.StatusOK, payload)
}
