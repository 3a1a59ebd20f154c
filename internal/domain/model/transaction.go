package model

import "time"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"   // checkout initiated, awaiting provider confirmation
	TransactionStatusCompleted TransactionStatus = "completed" // provider confirmed; upgrade applied
	TransactionStatusFailed    TransactionStatus = "failed"    // provider rejected or checkout abandoned
)

// Transaction records an external payment intent for a plan purchase.
// ProviderOrderID is the idempotency key: a confirmation event replaying the
// same order id is a no-op on the subscription record.
type Transaction struct {
	ID               string // ULID, sortable payment trail
	UserID           string
	PlanID           string
	AmountMinorUnits int64
	Currency         string
	Provider         string
	ProviderOrderID  string
	Status           TransactionStatus
	CreatedAt        time.Time
	CompletedAt      *time.Time
	// Provider-specific payload passed through opaquely for admin reporting.
	Meta map[string]interface{}
}

func (t *Transaction) IsZero() bool { return t == nil || t.ID == "" }
