package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

// QuotaUseCase enforces the per-day swipe allowance against the per-user
// subscription record. Every mutating path is a single atomic read-modify-
// write: the record is re-read inside the transaction, lazy corrections are
// applied, the counter is checked and bumped, and the row is written back.
// Concurrent increments from the same user on other devices serialize on the
// row; conflicts are retried by the transaction manager within its budget.
type QuotaUseCase struct {
	records  repository.SubscriptionRecordRepository
	settings *SettingsUseCase
	txm      repository.TransactionManager
	log      *zerolog.Logger

	// OnDowngrade, when set, is called after a lapsed premium record is
	// persisted back on the free tier. Wired to instrumentation at startup.
	OnDowngrade func()
}

func NewQuotaUseCase(records repository.SubscriptionRecordRepository, settings *SettingsUseCase, txm repository.TransactionManager, logger *zerolog.Logger) *QuotaUseCase {
	l := logger.With().Str("component", "QuotaUC").Logger()
	return &QuotaUseCase{records: records, settings: settings, txm: txm, log: &l}
}

// CanSwipe reports whether one more swipe would be admitted right now.
// Read-only: pending daily resets and expiry are evaluated in memory and not
// persisted, so repeated calls have no side effects.
func (uc *QuotaUseCase) CanSwipe(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, domain.ErrInvalidArgument
	}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return false, err
	}
	if !s.SubscriptionEnabled {
		return true, nil
	}

	now := time.Now()
	rec, err := uc.records.FindByUser(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		rec, err = model.NewFreeRecord(userID, s.FreeTierSwipeLimit, now)
	}
	if err != nil {
		return false, err
	}
	NormalizeRecord(rec, now, s.FreeTierSwipeLimit)
	return rec.CanSwipe(), nil
}

// IncrementSwipe atomically consumes one swipe and returns the committed
// record. A full counter aborts the transaction with ErrQuotaExceeded and
// writes nothing.
func (uc *QuotaUseCase) IncrementSwipe(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	var out *model.SubscriptionRecord
	var downgraded bool
	err = uc.txm.WithRetry(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		rec, err := uc.records.FindByUser(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			// First quota access creates the free-tier row lazily.
			rec, err = model.NewFreeRecord(userID, s.FreeTierSwipeLimit, now)
		}
		if err != nil {
			return err
		}
		downgraded = rec.Expired(now)
		NormalizeRecord(rec, now, s.FreeTierSwipeLimit)
		if s.SubscriptionEnabled && !rec.CanSwipe() {
			return domain.ErrQuotaExceeded
		}
		rec.SwipesUsedToday++
		rec.UpdatedAt = now
		out = rec
		return uc.records.Save(ctx, tx, rec)
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			uc.log.Debug().Str("user_id", userID).Msg("swipe rejected: quota exhausted")
		}
		return nil, err
	}
	if downgraded && uc.OnDowngrade != nil {
		uc.OnDowngrade()
	}
	return out, nil
}

// Refresh re-evaluates a record transactionally, applying any due lazy
// corrections, and returns the committed state. Creates the free-tier row
// for first-time users. The changed flag tells callers whether observers
// should be notified.
func (uc *QuotaUseCase) Refresh(ctx context.Context, userID string) (*model.SubscriptionRecord, bool, error) {
	if userID == "" {
		return nil, false, domain.ErrInvalidArgument
	}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, false, err
	}

	var out *model.SubscriptionRecord
	var changed, downgraded bool
	err = uc.txm.WithRetry(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		created := false
		rec, err := uc.records.FindByUser(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			rec, err = model.NewFreeRecord(userID, s.FreeTierSwipeLimit, now)
			created = true
		}
		if err != nil {
			return err
		}
		downgraded = rec.Expired(now)
		normalized := NormalizeRecord(rec, now, s.FreeTierSwipeLimit)
		changed = created || normalized
		out = rec
		if !changed {
			return nil
		}
		return uc.records.Save(ctx, tx, rec)
	})
	if err != nil {
		return nil, false, err
	}
	if downgraded && uc.OnDowngrade != nil {
		uc.OnDowngrade()
	}
	return out, changed, nil
}
