package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/infra/metrics"
	"dating-swipe-subscription/internal/usecase"
)

// StatsSampler refreshes subscriber-base gauges on a fixed cadence.
type StatsSampler struct {
	interval time.Duration
	statsUC  *usecase.StatsUseCase
	log      *zerolog.Logger
}

func NewStatsSampler(interval time.Duration, statsUC *usecase.StatsUseCase, logger *zerolog.Logger) *StatsSampler {
	compLog := logger.With().Str("component", "StatsSampler").Logger()
	return &StatsSampler{
		interval: interval,
		statsUC:  statsUC,
		log:      &compLog,
	}
}

func (w *StatsSampler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting stats sampler")
	w.sample(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats sampler")
			return ctx.Err()
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w *StatsSampler) sample(ctx context.Context) {
	totals, err := w.statsUC.Totals(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("stats sample failed")
		return
	}
	metrics.SetPremiumRecords(totals.PremiumActive, totals.PremiumLapsed)
	metrics.SetRecordsByPlan(totals.RecordsByPlan)
	metrics.SetPendingTransactions(totals.PendingTransactions)
}
