package repository

import (
	"context"
	"time"

	"dating-swipe-subscription/internal/domain/model"
)

// TransactionRepository is the port for payment transaction rows.
type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	FindByProviderOrder(ctx context.Context, tx Tx, provider, orderID string) (*model.Transaction, error)
	MarkCompleted(ctx context.Context, tx Tx, id string, at time.Time) error
	MarkFailed(ctx context.Context, tx Tx, id string) error
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Transaction, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Transaction, error)
	CountPending(ctx context.Context, tx Tx) (int, error)
}
