package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements the store ports on a single SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add implements store.TransactionWriter
func (r *SQLiteRepository) Add(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Date:        t.Date.ISO(),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Description: t.Description,
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"date", row.Date,
		"amount_cents", row.AmountCents,
		"category", row.Category)

	return row.ID, nil
}

// Get implements store.TransactionReader
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return toCore(row)
}

// Update implements store.TransactionUpdater. The merge runs inside a SQL
// transaction so the read-modify-write is atomic.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, u core.TransactionUpdate) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	row, err := q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	current, err := toCore(row)
	if err != nil {
		return core.Transaction{}, err
	}
	merged, err := current.Apply(u)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := q.UpdateTransaction(ctx, UpdateTransactionParams{
		Date:        merged.Date.ISO(),
		AmountCents: merged.Amount.Cents,
		Category:    merged.Category,
		Description: merged.Description,
		ID:          id,
	}); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	return merged, nil
}

// Delete implements store.TransactionDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// List implements store.TransactionLister
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Balance implements store.SummaryReader
func (r *SQLiteRepository) Balance(ctx context.Context) (core.Money, error) {
	sum, err := r.queries.GetBalance(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("get balance: %w", err)
	}
	return core.Money{Cents: sum}, nil
}

// MonthSummary implements store.SummaryReader
func (r *SQLiteRepository) MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	summary := core.MonthSummary{Year: year, Month: month}
	start, end := monthBounds(year, month)

	balance, err := r.queries.GetBalance(ctx)
	if err != nil {
		return summary, fmt.Errorf("get balance: %w", err)
	}
	summary.Balance = core.Money{Cents: balance}

	spending, err := r.queries.GetMonthSpending(ctx, start, end)
	if err != nil {
		return summary, fmt.Errorf("get month spending: %w", err)
	}
	summary.Spending = core.Money{Cents: spending}

	income, err := r.queries.GetMonthIncome(ctx, start, end)
	if err != nil {
		return summary, fmt.Errorf("get month income: %w", err)
	}
	summary.Income = core.Money{Cents: income}

	sums, err := r.queries.GetCategorySums(ctx, start, end)
	if err != nil {
		return summary, fmt.Errorf("get category sums: %w", err)
	}
	for _, cs := range sums {
		summary.ByCategory = append(summary.ByCategory, core.CategoryAmount{
			Name:   cs.Category,
			Amount: core.Money{Cents: cs.TotalCents},
		})
	}
	return summary, nil
}

// SetBudget implements store.BudgetStore
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := r.queries.UpsertBudget(ctx, UpsertBudgetParams{
		Category:   b.Category,
		LimitCents: b.Limit.Cents,
	}); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// ListBudgets implements store.BudgetStore
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Budget{
			Category: row.Category,
			Limit:    core.Money{Cents: row.LimitCents},
		})
	}
	return out, nil
}

// PendingSync returns transactions awaiting backup, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// MarkSynced marks a transaction as successfully backed up.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having failed backup.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func toCore(row Transaction) (core.Transaction, error) {
	d, err := time.Parse("2006-01-02", row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", row.Date, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Date:        core.NewDate(d.Year(), int(d.Month()), d.Day()),
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		Description: row.Description,
	}, nil
}

func monthBounds(year, month int) (start, end string) {
	s := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return s.Format("2006-01-02"), s.AddDate(0, 1, 0).Format("2006-01-02")
}
