package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrPlanNotFound       = errors.New("plan not found or inactive")
	ErrQuotaExceeded      = errors.New("daily swipe quota exceeded")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// ErrTransactionConflict is a write-write conflict on the per-user record.
	// Retried internally; callers only see it once the retry budget is spent.
	ErrTransactionConflict = errors.New("transaction conflict")
	ErrRetryExhausted      = errors.New("retry budget exhausted")
)
