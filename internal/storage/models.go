package storage

import "database/sql"

// Sync status values for the transactions table.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type Transaction struct {
	ID          int64
	Date        string // ISO date, YYYY-MM-DD
	AmountCents int64
	Category    string
	Description string
	SyncStatus  string
	CreatedAt   sql.NullTime
	UpdatedAt   sql.NullTime
	SyncedAt    sql.NullTime
}

type Budget struct {
	Category   string
	LimitCents int64
}

type CategorySum struct {
	Category   string
	TotalCents int64
}
