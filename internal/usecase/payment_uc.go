package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/adapter"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

// ApplyOutcome distinguishes the first application of a confirmation event
// from an idempotent replay. A replay is not an error.
type ApplyOutcome string

const (
	ApplyOutcomeApplied        ApplyOutcome = "applied"
	ApplyOutcomeAlreadyApplied ApplyOutcome = "already_applied"
)

// PaymentUseCase owns the payment trail: checkout initiation against the
// active provider and the idempotent confirmation-to-upgrade pipeline.
// Provider integrations verify authenticity upstream and hand this use case
// only the provider-agnostic confirmation event.
type PaymentUseCase struct {
	records      repository.SubscriptionRecordRepository
	plans        repository.PlanRepository
	transactions repository.TransactionRepository
	settings     *SettingsUseCase
	providers    map[string]adapter.PaymentProvider
	txm          repository.TransactionManager
	log          *zerolog.Logger
}

func NewPaymentUseCase(
	records repository.SubscriptionRecordRepository,
	plans repository.PlanRepository,
	transactions repository.TransactionRepository,
	settings *SettingsUseCase,
	providers map[string]adapter.PaymentProvider,
	txm repository.TransactionManager,
	logger *zerolog.Logger,
) *PaymentUseCase {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &PaymentUseCase{
		records:      records,
		plans:        plans,
		transactions: transactions,
		settings:     settings,
		providers:    providers,
		txm:          txm,
		log:          &l,
	}
}

// Initiate creates a pending transaction and asks the active provider for a
// checkout session. Nothing on the subscription record changes until the
// provider confirms.
func (uc *PaymentUseCase) Initiate(ctx context.Context, userID, planID string) (*model.Transaction, *adapter.CheckoutSession, error) {
	if userID == "" || planID == "" {
		return nil, nil, domain.ErrInvalidArgument
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrPlanNotFound
		}
		return nil, nil, err
	}
	if !plan.Active {
		return nil, nil, domain.ErrPlanNotFound
	}

	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	provider, ok := uc.providers[s.ActiveProvider]
	if !ok {
		return nil, nil, fmt.Errorf("payment provider %q not configured: %w", s.ActiveProvider, domain.ErrInvalidArgument)
	}

	sess, err := provider.RequestCheckout(ctx, userID, planID, plan.PriceMinorUnits, plan.Currency)
	if err != nil {
		return nil, nil, fmt.Errorf("request checkout: %w", err)
	}

	now := time.Now()
	t := &model.Transaction{
		ID:               ulid.Make().String(),
		UserID:           userID,
		PlanID:           planID,
		AmountMinorUnits: plan.PriceMinorUnits,
		Currency:         plan.Currency,
		Provider:         provider.Name(),
		ProviderOrderID:  sess.OrderID,
		Status:           model.TransactionStatusPending,
		CreatedAt:        now,
	}
	if err := uc.transactions.Save(ctx, repository.NoTX, t); err != nil {
		return nil, nil, err
	}
	uc.log.Info().Str("user_id", userID).Str("plan_id", planID).Str("order_id", sess.OrderID).Msg("checkout initiated")
	return t, sess, nil
}

// Apply consumes a confirmed payment event as a plan upgrade. The record
// upgrade, the transaction row completion and the idempotency marker commit
// in one transaction. Replaying an already-seen transaction id returns
// ApplyOutcomeAlreadyApplied and leaves period and quota fields as the first
// application set them.
func (uc *PaymentUseCase) Apply(ctx context.Context, evt adapter.ConfirmationEvent) (ApplyOutcome, *model.SubscriptionRecord, error) {
	if evt.UserID == "" || evt.PlanID == "" || evt.TransactionID == "" {
		return "", nil, domain.ErrInvalidArgument
	}

	plan, err := uc.plans.FindByID(ctx, repository.NoTX, evt.PlanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrPlanNotFound
		}
		return "", nil, err
	}
	if !plan.Active {
		return "", nil, domain.ErrPlanNotFound
	}

	s, err := uc.settings.Current(ctx)
	if err != nil {
		return "", nil, err
	}

	var outcome ApplyOutcome
	var out *model.SubscriptionRecord
	err = uc.txm.WithRetry(ctx, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		rec, err := uc.records.FindByUser(ctx, tx, evt.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			rec, err = model.NewFreeRecord(evt.UserID, s.FreeTierSwipeLimit, now)
		}
		if err != nil {
			return err
		}

		// Lapsed periods are corrected first so the upgrade acts on the
		// record's true state.
		normalized := NormalizeRecord(rec, now, s.FreeTierSwipeLimit)

		if rec.HasTransaction(evt.TransactionID) {
			outcome = ApplyOutcomeAlreadyApplied
			out = rec
			if normalized {
				return uc.records.Save(ctx, tx, rec)
			}
			return nil
		}

		if err := rec.ApplyPlan(plan, evt.TransactionID, now); err != nil {
			return err
		}
		if err := uc.records.Save(ctx, tx, rec); err != nil {
			return err
		}
		if err := uc.completeTransactionRow(ctx, tx, evt, plan, now); err != nil {
			return err
		}
		outcome = ApplyOutcomeApplied
		out = rec
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	if outcome == ApplyOutcomeApplied {
		uc.log.Info().Str("user_id", evt.UserID).Str("plan_id", evt.PlanID).
			Str("order_id", evt.TransactionID).Str("provider", evt.Provider).
			Msg("payment applied")
	} else {
		uc.log.Debug().Str("order_id", evt.TransactionID).Msg("duplicate confirmation ignored")
	}
	return outcome, out, nil
}

// completeTransactionRow marks the pending row completed, or records a
// completed row directly when the checkout never passed through this service
// (store billing confirmed out-of-band).
func (uc *PaymentUseCase) completeTransactionRow(ctx context.Context, tx repository.Tx, evt adapter.ConfirmationEvent, plan *model.Plan, now time.Time) error {
	t, err := uc.transactions.FindByProviderOrder(ctx, tx, evt.Provider, evt.TransactionID)
	if err == nil {
		return uc.transactions.MarkCompleted(ctx, tx, t.ID, now)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	completed := now
	return uc.transactions.Save(ctx, tx, &model.Transaction{
		ID:               ulid.Make().String(),
		UserID:           evt.UserID,
		PlanID:           evt.PlanID,
		AmountMinorUnits: plan.PriceMinorUnits,
		Currency:         plan.Currency,
		Provider:         evt.Provider,
		ProviderOrderID:  evt.TransactionID,
		Status:           model.TransactionStatusCompleted,
		CreatedAt:        now,
		CompletedAt:      &completed,
	})
}

// ResolveOrder maps a provider callback that only carries an order id back to
// the pending transaction it belongs to.
func (uc *PaymentUseCase) ResolveOrder(ctx context.Context, provider, orderID string) (*model.Transaction, error) {
	if provider == "" || orderID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.transactions.FindByProviderOrder(ctx, repository.NoTX, provider, orderID)
}

// Fail marks a pending transaction failed after the provider rejected or the
// user abandoned checkout. Completed rows are left alone.
func (uc *PaymentUseCase) Fail(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return domain.ErrInvalidArgument
	}
	if err := uc.transactions.MarkFailed(ctx, repository.NoTX, transactionID); err != nil {
		return err
	}
	uc.log.Info().Str("transaction_id", transactionID).Msg("transaction marked failed")
	return nil
}

// ListByUser exposes a user's payment trail for support and admin reporting.
func (uc *PaymentUseCase) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.transactions.ListByUser(ctx, repository.NoTX, userID, limit)
}
