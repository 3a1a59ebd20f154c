package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/adapter"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

// RecordObserver receives the committed record state after a change.
// Observers run off the committing goroutine; a slow observer never blocks
// a commit.
type RecordObserver func(rec model.SubscriptionRecord)

// TaskRunner defers observer fan-out. The worker pool implements it; a nil
// runner falls back to plain goroutines.
type TaskRunner interface {
	Submit(task func(ctx context.Context) error) error
}

// Summary is the client-facing view of a user's subscription and usage.
type Summary struct {
	UserID          string     `json:"user_id"`
	PlanID          string     `json:"plan_id"`
	PlanName        string     `json:"plan_name"`
	IsPremium       bool       `json:"is_premium"`
	IsActive        bool       `json:"is_active"`
	DaysRemaining   int        `json:"days_remaining"`
	PeriodEnd       *time.Time `json:"period_end,omitempty"`
	SwipesLimit     int        `json:"swipes_limit"`
	SwipesUsedToday int        `json:"swipes_used_today"`
	RemainingToday  int        `json:"remaining_today"`
}

// SubscriptionUseCase is the facade the rest of the app calls. It composes
// quota enforcement and the payment pipeline, owns user-facing cancel and
// refresh, and fans record changes out to observers after commit.
type SubscriptionUseCase struct {
	quota    *QuotaUseCase
	payments *PaymentUseCase
	plans    *PlanUseCase
	settings *SettingsUseCase
	records  repository.SubscriptionRecordRepository
	txm      repository.TransactionManager
	tasks    TaskRunner
	log      *zerolog.Logger

	mu        sync.RWMutex
	observers []RecordObserver
}

func NewSubscriptionUseCase(
	quota *QuotaUseCase,
	payments *PaymentUseCase,
	plans *PlanUseCase,
	settings *SettingsUseCase,
	records repository.SubscriptionRecordRepository,
	txm repository.TransactionManager,
	tasks TaskRunner,
	logger *zerolog.Logger,
) *SubscriptionUseCase {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &SubscriptionUseCase{
		quota:    quota,
		payments: payments,
		plans:    plans,
		settings: settings,
		records:  records,
		txm:      txm,
		tasks:    tasks,
		log:      &l,
	}
}

// AddObserver registers a callback for committed record changes.
func (uc *SubscriptionUseCase) AddObserver(fn RecordObserver) {
	if fn == nil {
		return
	}
	uc.mu.Lock()
	uc.observers = append(uc.observers, fn)
	uc.mu.Unlock()
}

// CanSwipe reports whether one more swipe would be admitted. Read-only.
func (uc *SubscriptionUseCase) CanSwipe(ctx context.Context, userID string) (bool, error) {
	return uc.quota.CanSwipe(ctx, userID)
}

// IncrementSwipe consumes one swipe and returns the new daily count.
func (uc *SubscriptionUseCase) IncrementSwipe(ctx context.Context, userID string) (int, error) {
	rec, err := uc.quota.IncrementSwipe(ctx, userID)
	if err != nil {
		return 0, err
	}
	uc.notify(*rec)
	return rec.SwipesUsedToday, nil
}

// Upgrade applies a confirmed purchase of planID identified by the provider
// transaction id, using the configured active provider. Safe to call again
// with the same transaction id.
func (uc *SubscriptionUseCase) Upgrade(ctx context.Context, userID, planID, transactionID string) (ApplyOutcome, error) {
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return "", err
	}
	return uc.ApplyConfirmation(ctx, adapter.ConfirmationEvent{
		UserID:        userID,
		PlanID:        planID,
		TransactionID: transactionID,
		Provider:      s.ActiveProvider,
	})
}

// ApplyConfirmation feeds a provider confirmation event into the upgrade
// pipeline and notifies observers on first application.
func (uc *SubscriptionUseCase) ApplyConfirmation(ctx context.Context, evt adapter.ConfirmationEvent) (ApplyOutcome, error) {
	outcome, rec, err := uc.payments.Apply(ctx, evt)
	if err != nil {
		return "", err
	}
	if outcome == ApplyOutcomeApplied {
		uc.notify(*rec)
	}
	return outcome, nil
}

// Cancel stops renewal immediately but keeps the paid quota until the period
// ends naturally. Cancelling a free or already-cancelled record is a no-op.
func (uc *SubscriptionUseCase) Cancel(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return err
	}

	var out *model.SubscriptionRecord
	var changed bool
	err = uc.txm.WithRetry(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		rec, err := uc.records.FindByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		normalized := NormalizeRecord(rec, now, s.FreeTierSwipeLimit)
		cancelled := rec.Cancel(now)
		changed = normalized || cancelled
		out = rec
		if !changed {
			return nil
		}
		return uc.records.Save(ctx, tx, rec)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Nothing to cancel for a user who never touched the quota.
			return nil
		}
		return err
	}
	if changed {
		uc.log.Info().Str("user_id", userID).Msg("subscription cancelled; access kept until period end")
		uc.notify(*out)
	}
	return nil
}

// Refresh re-reads the record transactionally, applying any due corrections,
// and returns the committed state. The recovery path after a client timeout:
// re-query rather than assume the outcome.
func (uc *SubscriptionUseCase) Refresh(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	rec, changed, err := uc.quota.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	if changed {
		uc.notify(*rec)
	}
	return rec, nil
}

// GetSummary returns the client-facing usage view. Read-only; corrections
// due on the record are reflected in the view without being persisted.
func (uc *SubscriptionUseCase) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec, err := uc.records.FindByUser(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		rec, err = model.NewFreeRecord(userID, s.FreeTierSwipeLimit, now)
	}
	if err != nil {
		return nil, err
	}
	NormalizeRecord(rec, now, s.FreeTierSwipeLimit)

	planName := "Free"
	if rec.IsPremium {
		if plan, err := uc.plans.Get(ctx, rec.CurrentPlanID); err == nil {
			planName = plan.DisplayName
		}
	}

	return &Summary{
		UserID:          rec.UserID,
		PlanID:          rec.CurrentPlanID,
		PlanName:        planName,
		IsPremium:       rec.IsPremium,
		IsActive:        rec.IsActive,
		DaysRemaining:   rec.DaysRemaining(now),
		PeriodEnd:       rec.PeriodEnd,
		SwipesLimit:     rec.SwipesLimit,
		SwipesUsedToday: rec.SwipesUsedToday,
		RemainingToday:  rec.RemainingToday(),
	}, nil
}

// notify fans the committed record out to observers off this goroutine.
func (uc *SubscriptionUseCase) notify(rec model.SubscriptionRecord) {
	uc.mu.RLock()
	observers := make([]RecordObserver, len(uc.observers))
	copy(observers, uc.observers)
	uc.mu.RUnlock()
	if len(observers) == 0 {
		return
	}

	run := func(ctx context.Context) error {
		for _, fn := range observers {
			fn(rec)
		}
		return nil
	}
	if uc.tasks != nil {
		if err := uc.tasks.Submit(run); err == nil {
			return
		}
		// Pool saturated; fall through to a plain goroutine so the
		// notification is not dropped.
	}
	go func() { _ = run(context.Background()) }()
}
