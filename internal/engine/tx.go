package engine

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// withTx runs fn inside a transaction and commits it. SQLite allows one
// writer at a time, so a busy error under write contention is retried with
// a short backoff; any other error rolls back and returns as-is.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return markBusyRetryable(err)
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return markBusyRetryable(err)
		}
		if err := tx.Commit(); err != nil {
			return markBusyRetryable(err)
		}
		return nil
	})
}

func markBusyRetryable(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return retry.RetryableError(err)
	}
	return err
}
