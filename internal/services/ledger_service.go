package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/store"
)

// EventPublisher publishes ledger change events for the backup worker.
// *amqp.Client satisfies this; tests use a fake.
type EventPublisher interface {
	PublishSync(ctx context.Context, id, version int64) error
	PublishDelete(ctx context.Context, id int64) error
}

// Repository is the storage surface the ledger service writes through.
type Repository interface {
	store.TransactionWriter
	store.TransactionUpdater
	store.TransactionDeleter
}

// LedgerService orchestrates transaction writes across storage and the
// event queue. Publishing is best-effort: the local write is the source of
// truth and a queue failure never fails the request.
type LedgerService struct {
	repo      Repository
	publisher EventPublisher
}

func NewLedgerService(repo Repository, publisher EventPublisher) *LedgerService {
	return &LedgerService{repo: repo, publisher: publisher}
}

// Sync event versions. The worker refetches the current row for every
// event, so the version only distinguishes a first write from a revision.
const (
	syncVersionInitial int64 = 1
	syncVersionRevised int64 = 2
)

// Create saves a transaction locally and publishes a sync event.
func (s *LedgerService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := s.repo.Add(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, id, syncVersionInitial)
	return id, nil
}

// Update applies a typed patch and publishes a sync event for the new state.
func (s *LedgerService) Update(ctx context.Context, id int64, u core.TransactionUpdate) (core.Transaction, error) {
	merged, err := s.repo.Update(ctx, id, u)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishSync(ctx, id, syncVersionRevised)
	return merged, nil
}

// Delete removes a transaction locally and publishes a delete event.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping delete event", "id", id)
		return nil
	}
	if err := s.publisher.PublishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event",
			"id", id, "error", err)
		// Don't fail the request - transaction is deleted locally
	}
	return nil
}

func (s *LedgerService) publishSync(ctx context.Context, id, version int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping sync event", "id", id)
		return
	}
	if err := s.publisher.PublishSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync event",
			"id", id, "error", err)
	}
}
