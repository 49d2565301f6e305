// Package memory provides the in-memory ledger store. It is the default
// backend and the fake used by handler and service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"tally/internal/core"
)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	items   []core.Transaction
	budgets map[string]core.Budget
}

func New() *Store {
	return &Store{nextID: 1, budgets: make(map[string]core.Budget)}
}

// Seed adds transactions without validation, for tests and local bootstrap.
func (s *Store) Seed(txs ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		t.ID = s.nextID
		s.nextID++
		s.items = append(s.items, t)
	}
}

// Add validates and stores the transaction, assigning a fresh ID.
func (s *Store) Add(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	s.items = append(s.items, t)
	return t.ID, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

// Update merges the patch over the stored record and re-validates the result.
func (s *Store) Update(_ context.Context, id int64, u core.TransactionUpdate) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID != id {
			continue
		}
		merged, err := t.Apply(u)
		if err != nil {
			return core.Transaction{}, err
		}
		s.items[i] = merged
		return merged, nil
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// List returns all transactions ordered by date, then ID.
func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Balance(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, t := range s.items {
		sum += t.Amount.Cents
	}
	return core.Money{Cents: sum}, nil
}

// MonthSummary aggregates the month's spending, income and category
// breakdown in a single pass. Categories with no expense activity in the
// month are omitted from the breakdown.
func (s *Store) MonthSummary(_ context.Context, year, month int) (core.MonthSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := core.MonthSummary{Year: year, Month: month}
	byCat := map[string]int64{}
	var order []string
	var balance int64
	for _, t := range s.items {
		balance += t.Amount.Cents
		if !t.Date.InMonth(year, month) {
			continue
		}
		if t.Amount.IsExpense() {
			summary.Spending.Cents += -t.Amount.Cents
			if _, seen := byCat[t.Category]; !seen {
				order = append(order, t.Category)
			}
			byCat[t.Category] += -t.Amount.Cents
		} else {
			summary.Income.Cents += t.Amount.Cents
		}
	}
	summary.Balance = core.Money{Cents: balance}
	for _, name := range order {
		summary.ByCategory = append(summary.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: byCat[name]},
		})
	}
	return summary, nil
}

func (s *Store) SetBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.Category] = b
	return nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}
