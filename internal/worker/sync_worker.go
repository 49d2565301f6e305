// Package worker mirrors committed transactions to the backup target.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/backup"
	"tally/internal/core"
)

// Store is the storage surface the worker needs: reading transactions and
// tracking their backup state. *storage.SQLiteRepository satisfies this.
type Store interface {
	Get(ctx context.Context, id int64) (core.Transaction, error)
	PendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker handles backup of transactions from SQLite to the row appender.
type SyncWorker struct {
	store     Store
	appender  backup.RowAppender
	batchSize int
}

func NewSyncWorker(store Store, appender backup.RowAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// Run consumes queue events and sweeps for missed rows on a ticker until
// the context is cancelled.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := client.ConsumeMessages(ctx, w.HandleSyncMessage, w.HandleDeleteMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic backup sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleSyncMessage backs up a single transaction referenced by a queue event.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	tx, err := w.store.Get(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the event was consumed; nothing to back up.
		slog.WarnContext(ctx, "Transaction gone before backup", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.backupOne(ctx, tx)
}

// HandleDeleteMessage acknowledges a delete event. Rows are append-only on
// the backup sheet; deletions are recorded locally only.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.DeleteMessage) error {
	slog.InfoContext(ctx, "Transaction deleted locally, backup row left in place",
		"id", msg.ID,
		"timestamp", msg.Timestamp)
	return nil
}

// ProcessPending backs up transactions that have not been mirrored yet,
// up to the configured batch size. Used at startup to catch up on events
// missed while the worker was down, and periodically as a safety net.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Backing up pending transactions", "count", len(pending))
	for _, tx := range pending {
		if err := w.backupOne(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to back up transaction",
				"id", tx.ID, "error", err)
			// Continue with the rest of the batch
		}
	}
	return nil
}

func (w *SyncWorker) backupOne(ctx context.Context, tx core.Transaction) error {
	ref, err := w.appender.AppendTransaction(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append transaction %d: %w", tx.ID, err)
	}

	if err := w.store.MarkSynced(ctx, tx.ID); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction backed up",
		"id", tx.ID,
		"ref", ref)
	return nil
}
