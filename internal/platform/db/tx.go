package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// WithTx runs fn inside a database transaction. The transaction is placed in
// the context so repositories pick it up via TxFromContext; every repo call
// made from fn therefore shares the same transaction. Commit on nil return,
// rollback otherwise. When the context already carries a transaction, fn
// joins it instead of opening a nested one.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TxFromContext retrieves the transaction placed in the context by WithTx,
// or nil when the caller is not inside one.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// AcquireDayLock takes a transaction-scoped advisory lock keyed on an
// appointment date. Two bookings for the same day serialize on this lock, so
// the conflict scan and the insert behave as one atomic step. The lock is
// released automatically at commit or rollback.
func AcquireDayLock(ctx context.Context, date string) error {
	tx := TxFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("acquire day lock: no transaction in context")
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, date); err != nil {
		return fmt.Errorf("acquire day lock for %s: %w", date, err)
	}
	return nil
}
