package repository

import (
	"context"

	"dating-swipe-subscription/internal/domain/model"
)

// SettingsRepository is the port for the global settings document.
type SettingsRepository interface {
	Get(ctx context.Context, tx Tx) (*model.AppSettings, error)
	Save(ctx context.Context, tx Tx, s *model.AppSettings) error
}
