package storage

import "context"

const createTransaction = `
INSERT INTO transactions (date, amount_cents, category, description)
VALUES (?, ?, ?, ?)
RETURNING id, date, amount_cents, category, description, sync_status, created_at, updated_at, synced_at
`

type CreateTransactionParams struct {
	Date        string
	AmountCents int64
	Category    string
	Description string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction, arg.Date, arg.AmountCents, arg.Category, arg.Description)
	var t Transaction
	err := row.Scan(&t.ID, &t.Date, &t.AmountCents, &t.Category, &t.Description, &t.SyncStatus, &t.CreatedAt, &t.UpdatedAt, &t.SyncedAt)
	return t, err
}

const getTransaction = `
SELECT id, date, amount_cents, category, description, sync_status, created_at, updated_at, synced_at
FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var t Transaction
	err := row.Scan(&t.ID, &t.Date, &t.AmountCents, &t.Category, &t.Description, &t.SyncStatus, &t.CreatedAt, &t.UpdatedAt, &t.SyncedAt)
	return t, err
}

const listTransactions = `
SELECT id, date, amount_cents, category, description, sync_status, created_at, updated_at, synced_at
FROM transactions
ORDER BY date, id
`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Date, &t.AmountCents, &t.Category, &t.Description, &t.SyncStatus, &t.CreatedAt, &t.UpdatedAt, &t.SyncedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const updateTransaction = `
UPDATE transactions
SET date = ?, amount_cents = ?, category = ?, description = ?,
    sync_status = 'pending', updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type UpdateTransactionParams struct {
	Date        string
	AmountCents int64
	Category    string
	Description string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, updateTransaction, arg.Date, arg.AmountCents, arg.Category, arg.Description, arg.ID)
	return err
}

const deleteTransaction = `
DELETE FROM transactions
WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getBalance = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM transactions
`

func (q *Queries) GetBalance(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, getBalance)
	var sum int64
	err := row.Scan(&sum)
	return sum, err
}

const getMonthSpending = `
SELECT COALESCE(SUM(-amount_cents), 0)
FROM transactions
WHERE amount_cents < 0 AND date >= ? AND date < ?
`

// GetMonthSpending returns the absolute expense total for [start, end).
func (q *Queries) GetMonthSpending(ctx context.Context, start, end string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getMonthSpending, start, end)
	var sum int64
	err := row.Scan(&sum)
	return sum, err
}

const getMonthIncome = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM transactions
WHERE amount_cents > 0 AND date >= ? AND date < ?
`

func (q *Queries) GetMonthIncome(ctx context.Context, start, end string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getMonthIncome, start, end)
	var sum int64
	err := row.Scan(&sum)
	return sum, err
}

const getCategorySums = `
SELECT category, SUM(-amount_cents) AS total_cents
FROM transactions
WHERE amount_cents < 0 AND date >= ? AND date < ?
GROUP BY category
ORDER BY total_cents DESC
`

// GetCategorySums returns expense totals per category for [start, end),
// categories with no expense activity omitted.
func (q *Queries) GetCategorySums(ctx context.Context, start, end string) ([]CategorySum, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySums, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategorySum
	for rows.Next() {
		var cs CategorySum
		if err := rows.Scan(&cs.Category, &cs.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, cs)
	}
	return items, rows.Err()
}

const upsertBudget = `
INSERT INTO budgets (category, limit_cents)
VALUES (?, ?)
ON CONFLICT(category) DO UPDATE SET limit_cents = excluded.limit_cents
`

type UpsertBudgetParams struct {
	Category   string
	LimitCents int64
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, arg.Category, arg.LimitCents)
	return err
}

const listBudgets = `
SELECT category, limit_cents
FROM budgets
ORDER BY category
`

func (q *Queries) ListBudgets(ctx context.Context) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.Category, &b.LimitCents); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const getPendingSyncTransactions = `
SELECT id, date, amount_cents, category, description, sync_status, created_at, updated_at, synced_at
FROM transactions
WHERE sync_status = 'pending'
ORDER BY id
LIMIT ?
`

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Date, &t.AmountCents, &t.Category, &t.Description, &t.SyncStatus, &t.CreatedAt, &t.UpdatedAt, &t.SyncedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const markTransactionSynced = `
UPDATE transactions
SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP
WHERE id = ?
`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, id)
	return err
}

const markTransactionSyncError = `
UPDATE transactions
SET sync_status = 'error'
WHERE id = ?
`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}
