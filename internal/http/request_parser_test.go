package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"tally/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth int
	}{
		{"explicit", "year=2024&month=3", 2024, 3},
		{"defaults", "", now.Year(), int(now.Month())},
		{"month too high", "year=2024&month=13", 2024, int(now.Month())},
		{"month zero", "year=2024&month=0", 2024, int(now.Month())},
		{"garbage month", "year=2024&month=abc", 2024, int(now.Month())},
		{"garbage year", "year=abc&month=5", now.Year(), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got := ParseMonthParams(q)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParsePathID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    int64
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"one", "1", 1, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"garbage", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/transactions/x/edit", nil)
			req.SetPathValue("id", tt.id)
			got, err := ParsePathID(req)
			if tt.wantErr {
				if !errors.Is(err, core.ErrNotFound) {
					t.Fatalf("err = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("id = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseTransactionForm(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		wantErr error
		check   func(t *testing.T, tx core.Transaction)
	}{
		{
			name: "valid expense",
			form: url.Values{
				"date":        {"2024-01-05"},
				"amount":      {"-50.00"},
				"category":    {"Groceries"},
				"description": {"weekly shop"},
			},
			check: func(t *testing.T, tx core.Transaction) {
				if tx.Amount.Cents != -5000 {
					t.Errorf("cents = %d, want -5000", tx.Amount.Cents)
				}
				if tx.Date.Year() != 2024 || tx.Date.Month() != 1 || tx.Date.Day() != 5 {
					t.Errorf("date = %v", tx.Date)
				}
			},
		},
		{
			name: "income with comma decimal",
			form: url.Values{"date": {"2024-02-01"}, "amount": {"1000,50"}, "category": {"Salary"}},
			check: func(t *testing.T, tx core.Transaction) {
				if tx.Amount.Cents != 100050 {
					t.Errorf("cents = %d, want 100050", tx.Amount.Cents)
				}
			},
		},
		{
			name: "category gets trimmed",
			form: url.Values{"date": {"2024-01-05"}, "amount": {"-5"}, "category": {"  Food \x00 "}},
			check: func(t *testing.T, tx core.Transaction) {
				if tx.Category != "Food" {
					t.Errorf("category = %q, want Food", tx.Category)
				}
			},
		},
		{
			name:    "bad date",
			form:    url.Values{"date": {"05/01/2024"}, "amount": {"-5"}, "category": {"X"}},
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "zero amount",
			form:    url.Values{"date": {"2024-01-05"}, "amount": {"0"}, "category": {"X"}},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "empty category",
			form:    url.Values{"date": {"2024-01-05"}, "amount": {"-5"}, "category": {"   "}},
			wantErr: core.ErrEmptyCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := ParseTransactionForm(tt.form)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, tx)
		})
	}
}

func TestParseTransactionPatch(t *testing.T) {
	t.Run("empty form leaves everything nil", func(t *testing.T) {
		u, err := ParseTransactionPatch(url.Values{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Date != nil || u.Amount != nil || u.Category != nil || u.Description != nil {
			t.Fatalf("patch not empty: %+v", u)
		}
	})

	t.Run("amount only", func(t *testing.T) {
		u, err := ParseTransactionPatch(url.Values{"amount": {"-12.34"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Amount == nil || u.Amount.Cents != -1234 {
			t.Fatalf("amount = %+v, want -1234", u.Amount)
		}
		if u.Category != nil {
			t.Fatalf("category should stay nil")
		}
	})

	t.Run("present empty description clears it", func(t *testing.T) {
		u, err := ParseTransactionPatch(url.Values{"description": {""}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Description == nil || *u.Description != "" {
			t.Fatalf("description = %+v, want empty string pointer", u.Description)
		}
	})

	t.Run("bad date fails", func(t *testing.T) {
		_, err := ParseTransactionPatch(url.Values{"date": {"not-a-date"}})
		if !errors.Is(err, core.ErrInvalidDate) {
			t.Fatalf("err = %v, want ErrInvalidDate", err)
		}
	})

	t.Run("bad amount fails", func(t *testing.T) {
		_, err := ParseTransactionPatch(url.Values{"amount": {"abc"}})
		if !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("err = %v, want ErrInvalidAmount", err)
		}
	})
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"with\x00null", "withnull"},
		{"keep\ttabs\nand\rreturns", "keep\ttabs\nand\rreturns"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRequireMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequireMethod(req, http.MethodGet, http.MethodPost); got != nil {
		t.Fatalf("GET against GET/POST should pass")
	}

	resp := RequireMethod(req, http.MethodDelete)
	if resp == nil {
		t.Fatalf("GET against DELETE should fail")
	}
	rec := httptest.NewRecorder()
	resp.Write(rec)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodDelete {
		t.Fatalf("Allow = %q, want DELETE", rec.Header().Get("Allow"))
	}
}
