package http

import (
	"html/template"
	"log/slog"
	"net/http"
)

// dashboardRow is one transaction line on the dashboard.
type dashboardRow struct {
	ID       int64
	Date     string
	Amount   string
	Expense  bool
	Category string
	Desc     string
}

type budgetRow struct {
	Category  string
	Limit     string
	Spent     string
	Remaining string
	Over      bool
	Width     int
}

// handleDashboard renders the main page: balance, month figures, category
// breakdown, budget standing, and recent transactions.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	mp := ParseMonthParams(r.URL.Query())

	balance, err := s.store.Balance(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance read error", "error", err)
		InternalServerError("Error loading balance").Write(w)
		return
	}

	summary, err := s.getMonthSummary(r.Context(), mp.Year, mp.Month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month summary error", "error", err, "year", mp.Year, "month", mp.Month)
		InternalServerError("Error loading month summary").Write(w)
		return
	}

	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget list error", "error", err)
		// Budgets are optional on the dashboard, keep rendering
	}

	items, err := s.getTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list error", "error", err)
	}

	// Category bars scale against the largest category of the month.
	var maxCents int64
	for _, c := range summary.ByCategory {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}
	type catRow struct {
		Name, Amount string
		Width        int
	}
	var cats []catRow
	for _, c := range summary.ByCategory {
		cats = append(cats, catRow{
			Name:   c.Name,
			Amount: formatAmount(c.Amount.Cents),
			Width:  barWidth(c.Amount.Cents, maxCents),
		})
	}

	breakdown := summary.Breakdown()
	var budgetRows []budgetRow
	for _, b := range budgets {
		st := b.Status(breakdown)
		budgetRows = append(budgetRows, budgetRow{
			Category:  st.Category,
			Limit:     formatAmount(st.Limit.Cents),
			Spent:     formatAmount(st.Spent.Cents),
			Remaining: formatAmount(st.Remaining.Cents),
			Over:      st.Remaining.Cents < 0,
			Width:     barWidth(st.Spent.Cents, st.Limit.Cents),
		})
	}

	// Most recent first, capped for the dashboard.
	var recent []dashboardRow
	for i := len(items) - 1; i >= 0 && len(recent) < 10; i-- {
		t := items[i]
		recent = append(recent, dashboardRow{
			ID:       t.ID,
			Date:     t.Date.ISO(),
			Amount:   formatAmount(t.Amount.Cents),
			Expense:  t.Amount.IsExpense(),
			Category: t.Category,
			Desc:     template.HTMLEscapeString(t.Description),
		})
	}

	data := struct {
		Year     int
		Month    int
		Balance  string
		Spending string
		Income   string
		Cats     []catRow
		Budgets  []budgetRow
		Recent   []dashboardRow
	}{
		Year:     mp.Year,
		Month:    mp.Month,
		Balance:  formatAmount(balance.Cents),
		Spending: formatAmount(summary.Spending.Cents),
		Income:   formatAmount(summary.Income.Cents),
		Cats:     cats,
		Budgets:  budgetRows,
		Recent:   recent,
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err, "template", "dashboard.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// barWidth returns a rounded percentage for progress bars, clamped to
// [2, 100] so tiny values stay visible.
func barWidth(value, max int64) int {
	if max <= 0 || value <= 0 {
		return 0
	}
	width := int((value*100 + max/2) / max)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}
