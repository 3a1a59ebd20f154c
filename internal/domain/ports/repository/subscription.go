package repository

import (
	"context"

	"dating-swipe-subscription/internal/domain/model"
)

// SubscriptionRecordRepository is the port for per-user subscription/quota rows.
// FindByUser inside a WithRetry transaction must return the row as of that
// transaction's snapshot so conflicting commits abort rather than interleave.
type SubscriptionRecordRepository interface {
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.SubscriptionRecord, error)
	Save(ctx context.Context, tx Tx, rec *model.SubscriptionRecord) error

	// --- admin/statistics read-only methods ---
	CountByPlan(ctx context.Context, tx Tx) (map[string]int, error)
	CountPremium(ctx context.Context, tx Tx) (active, lapsed int, err error)
}
