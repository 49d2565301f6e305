package backup

import (
	"context"

	"tally/internal/core"
)

// RowAppender mirrors a transaction to the external backup target.
type RowAppender interface {
	// AppendTransaction appends one transaction row and returns a
	// target-specific reference for logging.
	AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
