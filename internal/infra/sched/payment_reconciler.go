package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain/ports/repository"
	"dating-swipe-subscription/internal/infra/metrics"
	"dating-swipe-subscription/internal/usecase"
)

// PaymentReconciler periodically expires stale pending transactions. This
// covers checkouts the user abandoned and callbacks that never arrived; a
// late confirmation for a failed row still applies the upgrade, the row
// state only affects reporting.
type PaymentReconciler struct {
	interval     time.Duration
	timeout      time.Duration
	transactions repository.TransactionRepository
	paymentUC    *usecase.PaymentUseCase
	log          *zerolog.Logger
}

func NewPaymentReconciler(
	interval, timeout time.Duration,
	transactions repository.TransactionRepository,
	paymentUC *usecase.PaymentUseCase,
	logger *zerolog.Logger,
) *PaymentReconciler {
	compLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		interval:     interval,
		timeout:      timeout,
		transactions: transactions,
		paymentUC:    paymentUC,
		log:          &compLog,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	// Run once on startup, then on every tick
	w.reconcile(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

func (w *PaymentReconciler) reconcile(ctx context.Context) {
	cutoff := time.Now().Add(-w.timeout)
	stale, err := w.transactions.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 100)
	if err != nil {
		w.log.Error().Err(err).Msg("pending scan failed")
		return
	}

	failed := 0
	for _, t := range stale {
		if err := w.paymentUC.Fail(ctx, t.ID); err != nil {
			w.log.Error().Err(err).Str("transaction_id", t.ID).Msg("failed to expire transaction")
			continue
		}
		failed++
	}
	if failed > 0 {
		w.log.Info().Int("count", failed).Msg("stale pending transactions expired")
	}

	pending, err := w.transactions.CountPending(ctx, repository.NoTX)
	if err != nil {
		w.log.Error().Err(err).Msg("pending count failed")
		return
	}
	metrics.SetPendingTransactions(pending)
}
