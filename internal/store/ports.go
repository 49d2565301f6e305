package store

import (
	"context"

	"tally/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		// Add validates and stores the transaction, returning the assigned ID.
		Add(ctx context.Context, t core.Transaction) (int64, error)
	}

	TransactionReader interface {
		// Get returns core.ErrNotFound for unknown IDs.
		Get(ctx context.Context, id int64) (core.Transaction, error)
	}

	TransactionUpdater interface {
		// Update merges the patch over the stored record and re-validates.
		Update(ctx context.Context, id int64, u core.TransactionUpdate) (core.Transaction, error)
	}

	TransactionDeleter interface {
		Delete(ctx context.Context, id int64) error
	}

	TransactionLister interface {
		// List returns all transactions in display order (date, then ID).
		List(ctx context.Context) ([]core.Transaction, error)
	}

	// SummaryReader provides the aggregate figures for the dashboard and APIs.
	SummaryReader interface {
		Balance(ctx context.Context) (core.Money, error)
		// MonthSummary returns balance, spending, income and the category
		// breakdown for a specific year and month.
		MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error)
	}

	BudgetStore interface {
		SetBudget(ctx context.Context, b core.Budget) error
		ListBudgets(ctx context.Context) ([]core.Budget, error)
	}
)
