package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/ports/repository"
	"dating-swipe-subscription/internal/infra/metrics"
)

// Ensure compile-time conformance
var _ repository.TransactionManager = (*TxManager)(nil)

const maxRetryAttempts = 3

// TxManager implements repository.TransactionManager for Postgres (pgx).
// WithRetry emulates the source store's "atomic read-modify-write with
// automatic conflict retry": the callback runs under SERIALIZABLE isolation
// and is re-invoked on serialization failures up to the retry budget. The
// callback must re-read state through the passed tx handle on every attempt.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithTx opens a read-committed transaction, single attempt.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return m.run(ctx, pgx.TxOptions{}, fn)
}

// WithRetry opens a serializable transaction and retries on write conflicts.
// After the budget is spent it returns ErrTransactionConflict wrapped in
// ErrRetryExhausted; the attempt is never silently dropped or double-applied.
func (m *TxManager) WithRetry(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	var lastErr error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		err := m.run(ctx, opts, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
		metrics.IncTxRetry()
	}
	metrics.IncTxRetryExhausted()
	return fmt.Errorf("%w after %d attempts: %w: %v", domain.ErrRetryExhausted, maxRetryAttempts, domain.ErrTransactionConflict, lastErr)
}

func (m *TxManager) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err // rollback in defer
	}
	return tx.Commit(ctx)
}

// isSerializationFailure matches SQLSTATE 40001 (serialization_failure) and
// 40P01 (deadlock_detected).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
