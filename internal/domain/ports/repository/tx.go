package repository

import "context"

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres); repositories must gracefully accept a nil handle
// and fall back to their non-transactional path.
type Tx interface{}

// NoTX is passed where an operation intentionally runs outside a transaction.
var NoTX Tx

// TransactionManager executes a function within a storage transaction,
// passing the transaction handle to repositories via `tx`.
//
// WithTx runs a single read-committed attempt. WithRetry runs the function
// under SERIALIZABLE isolation and transparently retries a bounded number of
// times on write conflicts; the function must therefore re-read state through
// `tx` on every attempt rather than reuse values captured before the call.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	WithRetry(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
