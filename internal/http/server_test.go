package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	mem := memory.New()
	s := NewServer("127.0.0.1:0", mem, services.NewLedgerService(mem, nil))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, mem
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doRequest(s, req)
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d, want 200", rec.Code)
	}
}

func TestCreateTransaction(t *testing.T) {
	s, mem := newTestServer(t)

	rec := postForm(s, "/transactions", url.Values{
		"date":        {"2024-01-05"},
		"amount":      {"-50.00"},
		"category":    {"Groceries"},
		"description": {"weekly shop"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	trigger := rec.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "transaction:created") {
		t.Fatalf("HX-Trigger = %q, want transaction:created", trigger)
	}

	balance, err := mem.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cents != -5000 {
		t.Fatalf("balance = %d, want -5000", balance.Cents)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"bad date", url.Values{"date": {"not-a-date"}, "amount": {"-10"}, "category": {"X"}}},
		{"zero amount", url.Values{"date": {"2024-01-05"}, "amount": {"0"}, "category": {"X"}}},
		{"missing category", url.Values{"date": {"2024-01-05"}, "amount": {"-10"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(s, "/transactions", tt.form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestEditTransaction(t *testing.T) {
	s, mem := newTestServer(t)
	ctx := context.Background()

	id, err := mem.Add(ctx, core.Transaction{
		Date:     core.NewDate(2024, 1, 5),
		Amount:   core.Money{Cents: -5000},
		Category: "Groceries",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := postForm(s, "/transactions/1/edit", url.Values{"amount": {"-25.00"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got, err := mem.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cents != -2500 {
		t.Fatalf("amount = %d, want -2500", got.Amount.Cents)
	}
	if got.Category != "Groceries" {
		t.Fatalf("category changed by partial edit: %q", got.Category)
	}
}

func TestEditUnknownTransaction(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postForm(s, "/transactions/99/edit", url.Values{"amount": {"-25.00"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s, mem := newTestServer(t)
	ctx := context.Background()

	_, err := mem.Add(ctx, core.Transaction{
		Date:     core.NewDate(2024, 1, 5),
		Amount:   core.Money{Cents: -5000},
		Category: "Groceries",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doRequest(s, httptest.NewRequest(http.MethodDelete, "/transactions/1/delete", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "transaction:deleted") {
		t.Fatalf("missing transaction:deleted trigger")
	}

	// Second delete finds nothing
	rec = doRequest(s, httptest.NewRequest(http.MethodDelete, "/transactions/1/delete", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestImportCSV(t *testing.T) {
	s, mem := newTestServer(t)

	csv := "2024-01-05,-50.00,Groceries,\nbad-date,10,Salary,\n"
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Accept", "application/json")

	rec := doRequest(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Imported int `json:"succeeded_count"`
		Failed   int `json:"failed_count"`
		Errors   []struct {
			Row     int    `json:"row_index"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Imported != 1 || res.Failed != 1 {
		t.Fatalf("imported = %d, failed = %d, want 1/1", res.Imported, res.Failed)
	}
	if len(res.Errors) != 1 || res.Errors[0].Row != 1 {
		t.Fatalf("errors = %+v, want single error at row 1", res.Errors)
	}

	balance, _ := mem.Balance(context.Background())
	if balance.Cents != -5000 {
		t.Fatalf("balance = %d, want -5000 after import", balance.Cents)
	}
}

func TestAPIImport(t *testing.T) {
	s, _ := newTestServer(t)

	csv := "date,amount,category,description\n2024-01-05,-50.00,Groceries,\n"
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")

	rec := doRequest(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Imported int `json:"succeeded_count"`
		Failed   int `json:"failed_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Imported != 1 || res.Failed != 0 {
		t.Fatalf("imported = %d, failed = %d, want 1/0 with header skipped", res.Imported, res.Failed)
	}
}

func TestEditFormRedirectsToList(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/transactions/1/edit", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/transactions" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestImportRejectsUnknownContentType(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(s, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSaveBudget(t *testing.T) {
	s, mem := newTestServer(t)

	rec := postForm(s, "/budgets", url.Values{"category": {"Groceries"}, "limit": {"200.00"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	budgets, err := mem.ListBudgets(context.Background())
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Limit.Cents != 20000 {
		t.Fatalf("budgets = %+v, want single 20000-cent limit", budgets)
	}
}

func TestSaveBudgetRejectsNegativeLimit(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postForm(s, "/budgets", url.Values{"category": {"Groceries"}, "limit": {"-5.00"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestAPIBalance(t *testing.T) {
	s, mem := newTestServer(t)
	ctx := context.Background()

	seed := []core.Transaction{
		{Date: core.NewDate(2024, 1, 1), Amount: core.Money{Cents: 100000}, Category: "Salary"},
		{Date: core.NewDate(2024, 1, 10), Amount: core.Money{Cents: -20000}, Category: "Rent"},
		{Date: core.NewDate(2024, 1, 15), Amount: core.Money{Cents: -5000}, Category: "Groceries"},
	}
	for _, tx := range seed {
		if _, err := mem.Add(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/balance?year=2024&month=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload struct {
		Balance       float64 `json:"balance"`
		MonthlySpend  float64 `json:"monthly_spend"`
		MonthlyIncome float64 `json:"monthly_income"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Balance != 750.00 {
		t.Fatalf("balance = %v, want 750.00", payload.Balance)
	}
	if payload.MonthlySpend != 250.00 {
		t.Fatalf("monthly_spend = %v, want 250.00", payload.MonthlySpend)
	}
	if payload.MonthlyIncome != 1000.00 {
		t.Fatalf("monthly_income = %v, want 1000.00", payload.MonthlyIncome)
	}
}

func TestAPICategoryData(t *testing.T) {
	s, mem := newTestServer(t)
	ctx := context.Background()

	seed := []core.Transaction{
		{Date: core.NewDate(2024, 1, 1), Amount: core.Money{Cents: 100000}, Category: "Salary"},
		{Date: core.NewDate(2024, 1, 10), Amount: core.Money{Cents: -20000}, Category: "Rent"},
		{Date: core.NewDate(2024, 1, 15), Amount: core.Money{Cents: -5000}, Category: "Groceries"},
	}
	for _, tx := range seed {
		if _, err := mem.Add(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/category_data?year=2024&month=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload struct {
		Labels  []string  `json:"labels"`
		Amounts []float64 `json:"amounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Labels) != 2 || len(payload.Amounts) != 2 {
		t.Fatalf("payload = %+v, want 2 expense categories", payload)
	}
	// Income never shows up in the breakdown
	for _, l := range payload.Labels {
		if l == "Salary" {
			t.Fatalf("income category leaked into breakdown: %v", payload.Labels)
		}
	}
}

func TestAPITransactions(t *testing.T) {
	s, mem := newTestServer(t)
	ctx := context.Background()

	if _, err := mem.Add(ctx, core.Transaction{
		Date:        core.NewDate(2024, 1, 5),
		Amount:      core.Money{Cents: -5000},
		Category:    "Groceries",
		Description: "weekly shop",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload []struct {
		ID       int64   `json:"id"`
		Date     string  `json:"date"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 1 {
		t.Fatalf("got %d transactions, want 1", len(payload))
	}
	if payload[0].Date != "2024-01-05" || payload[0].Amount != -50.00 {
		t.Fatalf("payload = %+v", payload[0])
	}
}

func TestDashboardRenders(t *testing.T) {
	s, mem := newTestServer(t)
	ctx := context.Background()

	if _, err := mem.Add(ctx, core.Transaction{
		Date:     core.NewDate(2024, 1, 5),
		Amount:   core.Money{Cents: -5000},
		Category: "Groceries",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/?year=2024&month=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Groceries") {
		t.Fatalf("dashboard missing seeded category")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodPut, "/transactions", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Fatalf("Allow = %q, want GET, POST", allow)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	postForm(s, "/transactions", url.Values{
		"date":     {"2024-01-05"},
		"amount":   {"-50.00"},
		"category": {"Groceries"},
	})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/metricsz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}

	// Only the POST went through the middleware chain; /metricsz itself
	// is not counted.
	if got["total_requests"] != 1 {
		t.Fatalf("total_requests = %d, want 1", got["total_requests"])
	}
	if got["rate_limit_active_clients"] != 1 {
		t.Fatalf("rate_limit_active_clients = %d, want 1", got["rate_limit_active_clients"])
	}
	if _, ok := got["average_response_time_us"]; !ok {
		t.Fatalf("metrics missing average_response_time_us: %v", got)
	}
}
