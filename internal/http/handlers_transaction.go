package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"tally/internal/core"
	applog "tally/internal/log"
)

// handleTransactions serves the list page on GET and creates on POST.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderTransactionList(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderTransactionList(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	items, err := s.getTransactions(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Transaction list error",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpList)
		InternalServerError("Error loading transactions").Write(w)
		return
	}

	type row struct {
		ID       int64
		Date     string
		Amount   string
		Expense  bool
		Category string
		Desc     string
	}
	rows := make([]row, 0, len(items))
	for _, t := range items {
		rows = append(rows, row{
			ID:       t.ID,
			Date:     t.Date.ISO(),
			Amount:   formatAmount(t.Amount.Cents),
			Expense:  t.Amount.IsExpense(),
			Category: t.Category,
			Desc:     template.HTMLEscapeString(t.Description),
		})
	}

	data := struct {
		Count int
		Rows  []row
	}{Count: len(rows), Rows: rows}

	if err := s.templates.ExecuteTemplate(w, "transactions.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Transactions template execution failed", "error", err, "template", "transactions.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	t, err := ParseTransactionForm(r.Form)
	if err != nil {
		domainError(err).Write(w)
		return
	}

	id, err := s.ledger.Create(r.Context(), t)
	if err != nil {
		s.structLog.LogError(r.Context(), "Failed to save transaction", err,
			applog.ComponentLedger, applog.OpCreate,
			applog.NewFields().WithTransaction(0, t.Amount.Cents, t.Category))
		domainError(err).Write(w)
		return
	}

	s.invalidateMonth(t.Date)

	s.structLog.LogTransactionCreated(r.Context(), id, t.Amount.Cents, t.Category)

	successMsg := fmt.Sprintf("Saved #%d: %s %s (%s)",
		id, t.Date.ISO(), formatAmount(t.Amount.Cents), t.Category)

	NewHTMXResponse().
		TriggerTransactionCreated(t.Date.Year(), t.Date.Month()).
		TriggerFormReset().
		TriggerSuccessNotification(successMsg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(successMsg) + `</div>`).
		Write(w)
}

// handleEditTransaction applies a partial edit to one transaction. The edit
// form itself lives inline on the list page.
func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		http.Redirect(w, r, "/transactions", http.StatusSeeOther)
		return
	}
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	id, err := ParsePathID(r)
	if err != nil {
		NotFoundError("Unknown transaction").Write(w)
		return
	}

	patch, err := ParseTransactionPatch(r.Form)
	if err != nil {
		domainError(err).Write(w)
		return
	}

	// Fetch first so a moved transaction invalidates its old month too.
	before, err := s.store.Get(r.Context(), id)
	if err != nil {
		domainError(err).Write(w)
		return
	}

	updated, err := s.ledger.Update(r.Context(), id, patch)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(r.Context(), "Failed to update transaction",
				applog.FieldError, err, applog.FieldTransactionID, id)
		}
		domainError(err).Write(w)
		return
	}

	s.invalidateMonth(before.Date)
	s.invalidateMonth(updated.Date)

	slog.InfoContext(r.Context(), "Transaction updated successfully",
		applog.FieldTransactionID, id,
		applog.FieldAmountCents, updated.Amount.Cents,
		applog.FieldCategory, updated.Category)

	NewHTMXResponse().
		TriggerTransactionUpdated(updated.Date.Year(), updated.Date.Month()).
		TriggerSuccessNotification(fmt.Sprintf("Updated #%d", id)).
		BodyHTML(`<div class="success">Transaction updated</div>`).
		Write(w)
}

// handleDeleteTransaction removes one transaction.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireDeleteOrPOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	id, err := ParsePathID(r)
	if err != nil {
		NotFoundError("Unknown transaction").Write(w)
		return
	}

	// Needed for cache invalidation after the row is gone.
	before, err := s.store.Get(r.Context(), id)
	if err != nil {
		domainError(err).Write(w)
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(r.Context(), "Failed to delete transaction",
				applog.FieldError, err, applog.FieldTransactionID, id)
		}
		domainError(err).Write(w)
		return
	}

	s.invalidateMonth(before.Date)

	slog.InfoContext(r.Context(), "Transaction deleted successfully",
		applog.FieldTransactionID, id)

	NewHTMXResponse().
		TriggerTransactionDeleted(before.Date.Year(), before.Date.Month()).
		TriggerSuccessNotification("Transaction deleted").
		BodyHTML(`<div class="success">Transaction deleted</div>`).
		Write(w)
}
