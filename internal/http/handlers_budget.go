package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

// handleBudgets serves the budget page on GET and upserts a limit on POST.
func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderBudgets(w, r)
	case http.MethodPost:
		s.saveBudget(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderBudgets(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	mp := ParseMonthParams(r.URL.Query())

	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget list error", "error", err)
		InternalServerError("Error loading budgets").Write(w)
		return
	}

	summary, err := s.getMonthSummary(r.Context(), mp.Year, mp.Month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month summary error", "error", err, "year", mp.Year, "month", mp.Month)
		InternalServerError("Error loading month summary").Write(w)
		return
	}

	breakdown := summary.Breakdown()
	rows := make([]budgetRow, 0, len(budgets))
	for _, b := range budgets {
		st := b.Status(breakdown)
		rows = append(rows, budgetRow{
			Category:  st.Category,
			Limit:     formatAmount(st.Limit.Cents),
			Spent:     formatAmount(st.Spent.Cents),
			Remaining: formatAmount(st.Remaining.Cents),
			Over:      st.Remaining.Cents < 0,
			Width:     barWidth(st.Spent.Cents, st.Limit.Cents),
		})
	}

	data := struct {
		Year    int
		Month   int
		Budgets []budgetRow
	}{Year: mp.Year, Month: mp.Month, Budgets: rows}

	if err := s.templates.ExecuteTemplate(w, "budgets.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Budgets template execution failed", "error", err, "template", "budgets.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) saveBudget(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	category := sanitizeInput(r.Form.Get("category"))
	limitCents, err := core.ParseCents(r.Form.Get("limit"))
	if err != nil {
		domainError(core.ErrInvalidAmount).Write(w)
		return
	}

	b := core.Budget{Category: category, Limit: core.Money{Cents: limitCents}}
	if err := b.Validate(); err != nil {
		domainError(err).Write(w)
		return
	}

	if err := s.store.SetBudget(r.Context(), b); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save budget",
			"error", err, "category", category)
		InternalServerError("Error saving budget").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Budget saved",
		"category", category,
		"limit_cents", limitCents)

	msg := fmt.Sprintf("Budget for %s set to %s", category, formatAmount(limitCents))
	NewHTMXResponse().
		TriggerBudgetSaved(category).
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}
