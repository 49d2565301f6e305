// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: form fields, month selectors, path IDs, and input sanitization.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using the
// current date as defaults. Out-of-range months fall back to the current one.
func ParseMonthParams(query url.Values) MonthParams {
	now := time.Now()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			params.Month = m
		}
	}
	if params.Month < 1 || params.Month > 12 {
		params.Month = int(now.Month())
	}

	return params
}

// ParsePathID extracts the {id} path segment as a transaction ID.
func ParsePathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// ParseTransactionForm builds a transaction from create-form fields.
// Expected fields: date (YYYY-MM-DD), amount (signed decimal), category,
// description.
func ParseTransactionForm(form url.Values) (core.Transaction, error) {
	dateStr := strings.TrimSpace(form.Get("date"))
	parsed, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Transaction{}, core.ErrInvalidDate
	}

	cents, err := core.ParseSignedCents(form.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		Date:        core.NewDate(parsed.Year(), int(parsed.Month()), parsed.Day()),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(form.Get("category")),
		Description: sanitizeInput(form.Get("description")),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// ParseTransactionPatch builds a typed patch from edit-form fields.
// Empty fields stay nil and leave the stored value untouched; description
// uses a presence check so it can be cleared explicitly.
func ParseTransactionPatch(form url.Values) (core.TransactionUpdate, error) {
	var u core.TransactionUpdate

	if v := strings.TrimSpace(form.Get("date")); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return core.TransactionUpdate{}, core.ErrInvalidDate
		}
		d := core.NewDate(parsed.Year(), int(parsed.Month()), parsed.Day())
		u.Date = &d
	}

	if v := strings.TrimSpace(form.Get("amount")); v != "" {
		cents, err := core.ParseSignedCents(v)
		if err != nil {
			return core.TransactionUpdate{}, err
		}
		m := core.Money{Cents: cents}
		u.Amount = &m
	}

	if v := sanitizeInput(form.Get("category")); v != "" {
		u.Category = &v
	}

	if _, ok := form["description"]; ok {
		v := sanitizeInput(form.Get("description"))
		u.Description = &v
	}

	return u, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1 // remove character
		}
		return r
	}, s)
	return result
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
