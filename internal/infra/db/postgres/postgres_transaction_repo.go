package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `id, user_id, plan_id, amount_minor_units, currency, provider,
 provider_order_id, status, created_at, completed_at, meta`

func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (` + transactionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status, completed_at=EXCLUDED.completed_at, meta=EXCLUDED.meta;`

	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.UserID, t.PlanID, t.AmountMinorUnits, t.Currency, t.Provider,
		t.ProviderOrderID, string(t.Status), t.CreatedAt, t.CompletedAt, t.Meta,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Unique provider order id; a concurrent apply won the race.
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
  FROM transactions
 WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) FindByProviderOrder(ctx context.Context, tx repository.Tx, provider, orderID string) (*model.Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
  FROM transactions
 WHERE provider=$1 AND provider_order_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, provider, orderID)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE transactions SET status='completed', completed_at=$2 WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *transactionRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE transactions SET status='failed' WHERE id=$1 AND status='pending';`
	ct, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *transactionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
  FROM transactions
 WHERE user_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`
	return r.list(ctx, tx, q, userID, limit)
}

func (r *transactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
  FROM transactions
 WHERE status='pending' AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;`
	return r.list(ctx, tx, q, cutoff, limit)
}

func (r *transactionRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	const q = `SELECT COUNT(*) FROM transactions WHERE status='pending';`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *transactionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Transaction, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	var status string
	err := row.Scan(
		&t.ID, &t.UserID, &t.PlanID, &t.AmountMinorUnits, &t.Currency,
		&t.Provider, &t.ProviderOrderID, &status, &t.CreatedAt, &t.CompletedAt, &t.Meta,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	t.Status = model.TransactionStatus(status)
	return t, nil
}
