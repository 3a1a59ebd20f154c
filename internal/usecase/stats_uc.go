package usecase

import (
	"context"

	"dating-swipe-subscription/internal/domain/ports/repository"
)

// Totals is a point-in-time snapshot of the subscriber base.
type Totals struct {
	PremiumActive       int            `json:"premium_active"`
	PremiumLapsed       int            `json:"premium_lapsed"`
	RecordsByPlan       map[string]int `json:"records_by_plan"`
	PendingTransactions int            `json:"pending_transactions"`
}

type StatsUseCase struct {
	records      repository.SubscriptionRecordRepository
	transactions repository.TransactionRepository
}

func NewStatsUseCase(records repository.SubscriptionRecordRepository, transactions repository.TransactionRepository) *StatsUseCase {
	return &StatsUseCase{records: records, transactions: transactions}
}

// Lapsed counts rows whose period has ended but which have not been touched
// since; they downgrade on their next read. The totals here are approximate
// by nature, each count runs outside any shared transaction.
func (uc *StatsUseCase) Totals(ctx context.Context) (*Totals, error) {
	active, lapsed, err := uc.records.CountPremium(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	byPlan, err := uc.records.CountByPlan(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	pending, err := uc.transactions.CountPending(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	return &Totals{
		PremiumActive:       active,
		PremiumLapsed:       lapsed,
		RecordsByPlan:       byPlan,
		PendingTransactions: pending,
	}, nil
}
