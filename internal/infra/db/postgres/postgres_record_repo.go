package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

// Ensure recordRepo implements repository.SubscriptionRecordRepository
var _ repository.SubscriptionRecordRepository = (*recordRepo)(nil)

type recordRepo struct {
	pool *pgxpool.Pool
}

func NewRecordRepo(pool *pgxpool.Pool) *recordRepo {
	return &recordRepo{pool: pool}
}

const recordColumns = `user_id, current_plan_id, is_premium, is_active, period_start, period_end,
 swipes_limit, swipes_used_today, last_reset_day, applied_transaction_ids, created_at, updated_at`

func (r *recordRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error) {
	const q = `
SELECT ` + recordColumns + `
  FROM subscription_records
 WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanRecord(row)
}

func (r *recordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) error {
	const q = `
INSERT INTO subscription_records (` + recordColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (user_id) DO UPDATE SET
  current_plan_id=$2, is_premium=$3, is_active=$4, period_start=$5, period_end=$6,
  swipes_limit=$7, swipes_used_today=$8, last_reset_day=$9,
  applied_transaction_ids=$10, updated_at=$12;`

	ids := rec.AppliedTransactionIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.UserID, rec.CurrentPlanID, rec.IsPremium, rec.IsActive,
		rec.PeriodStart, rec.PeriodEnd, rec.SwipesLimit, rec.SwipesUsedToday,
		rec.LastResetDay, ids, rec.CreatedAt, rec.UpdatedAt,
	)
	// Serialization failures surface unwrapped so the transaction manager
	// can retry them.
	return err
}

func (r *recordRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `
SELECT current_plan_id, COUNT(*)
  FROM subscription_records
 GROUP BY current_plan_id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	m := make(map[string]int)
	for rows.Next() {
		var planID string
		var c int
		if err := rows.Scan(&planID, &c); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		m[planID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}

func (r *recordRepo) CountPremium(ctx context.Context, tx repository.Tx) (int, int, error) {
	const q = `
SELECT
  COUNT(*) FILTER (WHERE is_active),
  COUNT(*) FILTER (WHERE NOT is_active)
  FROM subscription_records
 WHERE is_premium;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, 0, err
	}
	var active, cancelled int
	if err := row.Scan(&active, &cancelled); err != nil {
		return 0, 0, domain.ErrReadDatabaseRow
	}
	return active, cancelled, nil
}

func scanRecord(row pgx.Row) (*model.SubscriptionRecord, error) {
	rec := &model.SubscriptionRecord{}
	err := row.Scan(
		&rec.UserID, &rec.CurrentPlanID, &rec.IsPremium, &rec.IsActive,
		&rec.PeriodStart, &rec.PeriodEnd, &rec.SwipesLimit, &rec.SwipesUsedToday,
		&rec.LastResetDay, &rec.AppliedTransactionIDs, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}
