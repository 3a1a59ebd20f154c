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

// Ensure interface compliance
var _ repository.PlanRepository = (*PlanRepo)(nil)

type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

const planColumns = `id, name, display_name, description, price_minor_units, currency,
 duration_days, swipe_limit, features, active, popular, created_at, updated_at`

func (r *PlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	const q = `
INSERT INTO plans (` + planColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name,
  display_name=EXCLUDED.display_name,
  description=EXCLUDED.description,
  price_minor_units=EXCLUDED.price_minor_units,
  currency=EXCLUDED.currency,
  duration_days=EXCLUDED.duration_days,
  swipe_limit=EXCLUDED.swipe_limit,
  features=EXCLUDED.features,
  active=EXCLUDED.active,
  popular=EXCLUDED.popular,
  updated_at=EXCLUDED.updated_at;`

	features := plan.Features
	if features == nil {
		features = []string{}
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		plan.ID, plan.Name, plan.DisplayName, plan.Description,
		plan.PriceMinorUnits, plan.Currency, plan.DurationDays, plan.SwipeLimit,
		features, plan.Active, plan.Popular, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	const q = `
SELECT ` + planColumns + `
  FROM plans
 WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *PlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const q = `
SELECT ` + planColumns + `
  FROM plans
 WHERE active
 ORDER BY price_minor_units ASC;`
	return r.list(ctx, tx, q)
}

func (r *PlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const q = `
SELECT ` + planColumns + `
  FROM plans
 ORDER BY price_minor_units ASC;`
	return r.list(ctx, tx, q)
}

func (r *PlanRepo) Deactivate(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE plans SET active=false, updated_at=NOW() WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("deactivate plan: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PlanRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	p := &model.Plan{}
	err := row.Scan(
		&p.ID, &p.Name, &p.DisplayName, &p.Description, &p.PriceMinorUnits,
		&p.Currency, &p.DurationDays, &p.SwipeLimit, &p.Features,
		&p.Active, &p.Popular, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
