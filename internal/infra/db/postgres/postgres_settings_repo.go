package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*settingsRepo)(nil)

// settingsRepo stores the single global settings document as a one-row table.
type settingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *settingsRepo {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.AppSettings, error) {
	const q = `
SELECT free_tier_swipe_limit, subscription_enabled, active_provider, updated_at
  FROM app_settings
 WHERE id=1;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	s := &model.AppSettings{}
	if err := row.Scan(&s.FreeTierSwipeLimit, &s.SubscriptionEnabled, &s.ActiveProvider, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *settingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.AppSettings) error {
	const q = `
INSERT INTO app_settings (id, free_tier_swipe_limit, subscription_enabled, active_provider, updated_at)
VALUES (1,$1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
  free_tier_swipe_limit=$1, subscription_enabled=$2, active_provider=$3, updated_at=$4;`
	_, err := execSQL(ctx, r.pool, tx, q, s.FreeTierSwipeLimit, s.SubscriptionEnabled, s.ActiveProvider, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
