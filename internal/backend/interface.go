package backend

import (
	"context"

	"tally/internal/store"
)

// Store is the unified storage surface the web server runs against.
type Store interface {
	store.TransactionWriter
	store.TransactionReader
	store.TransactionUpdater
	store.TransactionDeleter
	store.TransactionLister
	store.SummaryReader
	store.BudgetStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the created store and its companions
type Result struct {
	Store Store

	// Publisher is non-nil when AMQP is configured
	Publisher EventPublisher

	Cleanup CleanupFunc
}

// EventPublisher publishes ledger change events
type EventPublisher interface {
	PublishSync(ctx context.Context, id, version int64) error
	PublishDelete(ctx context.Context, id int64) error
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Optional event queue
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type represents the type of backend
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
