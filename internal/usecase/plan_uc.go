package usecase

import (
	"context"
	"time"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

// PlanUseCase manages the plan catalog. The quota engine only reads plans;
// writes come from the admin surface.
type PlanUseCase struct {
	repo repository.PlanRepository
}

func NewPlanUseCase(repo repository.PlanRepository) *PlanUseCase {
	return &PlanUseCase{repo: repo}
}

// Get retrieves a plan by id.
func (uc *PlanUseCase) Get(ctx context.Context, id string) (*model.Plan, error) {
	return uc.repo.FindByID(ctx, repository.NoTX, id)
}

// ListActive returns the purchasable plans in catalog order.
func (uc *PlanUseCase) ListActive(ctx context.Context) ([]*model.Plan, error) {
	return uc.repo.ListActive(ctx, repository.NoTX)
}

// ListAll returns every plan, including deactivated ones, for the admin view.
func (uc *PlanUseCase) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return uc.repo.ListAll(ctx, repository.NoTX)
}

// Create validates and stores a new plan.
func (uc *PlanUseCase) Create(ctx context.Context, id, name, displayName string, priceMinorUnits int64, currency string, durationDays, swipeLimit int, features []string) (*model.Plan, error) {
	plan, err := model.NewPlan(id, name, displayName, priceMinorUnits, currency, durationDays, swipeLimit, features)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Update overwrites an existing plan version. Records keep their snapshotted
// limits; edits only affect future assignments.
func (uc *PlanUseCase) Update(ctx context.Context, plan *model.Plan) error {
	if plan.IsZero() {
		return domain.ErrInvalidArgument
	}
	plan.UpdatedAt = time.Now()
	return uc.repo.Save(ctx, repository.NoTX, plan)
}

// Deactivate hides a plan from purchase without touching existing records.
func (uc *PlanUseCase) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	return uc.repo.Deactivate(ctx, repository.NoTX, id)
}
