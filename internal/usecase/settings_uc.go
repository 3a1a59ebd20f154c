package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

// SettingsUseCase serves the global settings document with a short-TTL
// in-process snapshot. Staleness here is acceptable: swipe limits are
// snapshotted into records at assignment time, not re-read per swipe.
type SettingsUseCase struct {
	repo repository.SettingsRepository
	ttl  time.Duration
	log  *zerolog.Logger

	mu        sync.RWMutex
	cached    *model.AppSettings
	fetchedAt time.Time
}

func NewSettingsUseCase(repo repository.SettingsRepository, ttl time.Duration, logger *zerolog.Logger) *SettingsUseCase {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	l := logger.With().Str("component", "SettingsUC").Logger()
	return &SettingsUseCase{repo: repo, ttl: ttl, log: &l}
}

// Current returns the settings snapshot, refreshing it when the TTL lapsed.
// A missing settings row falls back to defaults rather than failing quota
// decisions.
func (uc *SettingsUseCase) Current(ctx context.Context) (*model.AppSettings, error) {
	uc.mu.RLock()
	if uc.cached != nil && time.Since(uc.fetchedAt) < uc.ttl {
		s := *uc.cached
		uc.mu.RUnlock()
		return &s, nil
	}
	uc.mu.RUnlock()

	s, err := uc.repo.Get(ctx, repository.NoTX)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s = model.DefaultSettings()
		} else {
			uc.mu.RLock()
			stale := uc.cached
			uc.mu.RUnlock()
			if stale != nil {
				// Serve the stale snapshot over failing the caller.
				uc.log.Warn().Err(err).Msg("settings fetch failed; serving stale snapshot")
				cp := *stale
				return &cp, nil
			}
			return nil, err
		}
	}

	uc.mu.Lock()
	uc.cached = s
	uc.fetchedAt = time.Now()
	uc.mu.Unlock()

	cp := *s
	return &cp, nil
}

// Update persists new settings and invalidates the snapshot.
func (uc *SettingsUseCase) Update(ctx context.Context, s *model.AppSettings) error {
	if s == nil || s.FreeTierSwipeLimit < 0 {
		return domain.ErrInvalidArgument
	}
	s.UpdatedAt = time.Now()
	if err := uc.repo.Save(ctx, repository.NoTX, s); err != nil {
		return err
	}
	uc.mu.Lock()
	uc.cached = nil
	uc.mu.Unlock()
	return nil
}
