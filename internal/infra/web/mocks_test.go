//go:build !integration

package web_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/adapter"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

// In-memory ports so the routers exercise the real use cases without a
// database behind them.

type memRecordRepo struct {
	mu    sync.Mutex
	store map[string]*model.SubscriptionRecord
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{store: make(map[string]*model.SubscriptionRecord)}
}

func (m *memRecordRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	cp.AppliedTransactionIDs = append([]string(nil), rec.AppliedTransactionIDs...)
	return &cp, nil
}

func (m *memRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.AppliedTransactionIDs = append([]string(nil), rec.AppliedTransactionIDs...)
	m.store[rec.UserID] = &cp
	return nil
}

func (m *memRecordRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, rec := range m.store {
		out[rec.CurrentPlanID]++
	}
	return out, nil
}

func (m *memRecordRepo) CountPremium(ctx context.Context, tx repository.Tx) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var active, lapsed int
	for _, rec := range m.store {
		if !rec.IsPremium {
			continue
		}
		if rec.Expired(now) {
			lapsed++
		} else {
			active++
		}
	}
	return active, lapsed, nil
}

func (m *memRecordRepo) put(rec *model.SubscriptionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[rec.UserID] = rec
}

func (m *memRecordRepo) get(userID string) *model.SubscriptionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[userID]
}

type memPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.Plan
}

func newMemPlanRepo() *memPlanRepo { return &memPlanRepo{store: make(map[string]*model.Plan)} }

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	all, _ := m.ListAll(ctx, tx)
	out := make([]*model.Plan, 0, len(all))
	for _, p := range all {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Plan, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.store[plan.ID] = &cp
	return nil
}

func (m *memPlanRepo) Deactivate(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = false
	return nil
}

type memTxRepo struct {
	mu    sync.Mutex
	store map[string]*model.Transaction
}

func newMemTxRepo() *memTxRepo { return &memTxRepo{store: make(map[string]*model.Transaction)} }

func (m *memTxRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTxRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTxRepo) FindByProviderOrder(ctx context.Context, tx repository.Tx, provider, orderID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.store {
		if t.Provider == provider && t.ProviderOrderID == orderID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTxRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = model.TransactionStatusCompleted
	t.CompletedAt = &at
	return nil
}

func (m *memTxRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status == model.TransactionStatusPending {
		t.Status = model.TransactionStatusFailed
	}
	return nil
}

func (m *memTxRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Transaction, 0)
	for _, t := range m.store {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memTxRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Transaction, 0)
	for _, t := range m.store {
		if t.Status == model.TransactionStatusPending && t.CreatedAt.Before(cutoff) {
			cp := *t
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memTxRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.store {
		if t.Status == model.TransactionStatusPending {
			n++
		}
	}
	return n, nil
}

func (m *memTxRepo) get(id string) *model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id]
}

type memSettingsRepo struct {
	mu sync.Mutex
	s  *model.AppSettings
}

func (m *memSettingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.AppSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.s
	return &cp, nil
}

func (m *memSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.AppSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

// passTxManager runs the function directly; the in-memory repos are already
// mutex-safe.
type passTxManager struct{}

func (passTxManager) WithTx(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

func (passTxManager) WithRetry(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type inlineRunner struct{}

func (inlineRunner) Submit(task func(ctx context.Context) error) error {
	return task(context.Background())
}

// stubProvider hands out deterministic checkout sessions.
type stubProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *stubProvider) Name() string { return "noop" }

func (p *stubProvider) RequestCheckout(ctx context.Context, userID, planID string, amountMinorUnits int64, currency string) (*adapter.CheckoutSession, error) {
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()
	return &adapter.CheckoutSession{
		OrderID:     fmt.Sprintf("order-%d", n),
		RedirectURL: fmt.Sprintf("https://pay.example/checkout/%d", n),
	}, nil
}

// fakeWatcher hands the handler a pre-filled stream of record changes.
type fakeWatcher struct {
	ch chan model.SubscriptionRecord
}

func (f *fakeWatcher) Watch(ctx context.Context, userID string) <-chan model.SubscriptionRecord {
	return f.ch
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
