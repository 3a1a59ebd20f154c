package repository

import (
	"context"

	"dating-swipe-subscription/internal/domain/model"
)

// PlanRepository is the port for the plan catalog. The quota engine only
// reads it; writes come from the admin surface.
type PlanRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	Deactivate(ctx context.Context, tx Tx, id string) error
}
