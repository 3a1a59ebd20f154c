//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	"dating-swipe-subscription/internal/domain/ports/adapter"
	"dating-swipe-subscription/internal/domain/ports/repository"
)

// ---- Mock SubscriptionRecordRepository ----

// MockRecordRepo is a small in-memory implementation used by unit tests.
type MockRecordRepo struct {
	mu    sync.RWMutex
	store map[string]*model.SubscriptionRecord

	FindByUserFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error)
	SaveFunc       func(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) error
}

var _ repository.SubscriptionRecordRepository = (*MockRecordRepo)(nil)

func NewMockRecordRepo() *MockRecordRepo {
	return &MockRecordRepo{store: make(map[string]*model.SubscriptionRecord)}
}

func (m *MockRecordRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, tx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	cp.AppliedTransactionIDs = append([]string(nil), rec.AppliedTransactionIDs...)
	return &cp, nil
}

func (m *MockRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.AppliedTransactionIDs = append([]string(nil), rec.AppliedTransactionIDs...)
	m.store[rec.UserID] = &cp
	return nil
}

func (m *MockRecordRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, rec := range m.store {
		out[rec.CurrentPlanID]++
	}
	return out, nil
}

func (m *MockRecordRepo) CountPremium(ctx context.Context, tx repository.Tx) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	active, lapsed := 0, 0
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

// Get returns the stored record directly, bypassing the repository contract.
func (m *MockRecordRepo) Get(userID string) *model.SubscriptionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[userID]
}

// Put seeds a record, bypassing the repository contract.
func (m *MockRecordRepo) Put(rec *model.SubscriptionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[rec.UserID] = rec
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Plan

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: make(map[string]*model.Plan)}
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Plan
	for _, p := range m.store {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Plan
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) Deactivate(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = false
	return nil
}

// ---- Mock TransactionRepository ----

type MockTransactionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Transaction

	SaveFunc func(ctx context.Context, tx repository.Tx, t *model.Transaction) error
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: make(map[string]*model.Transaction)}
}

func (m *MockTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepo) FindByProviderOrder(ctx context.Context, tx repository.Tx, provider, orderID string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.store {
		if t.Provider == provider && t.ProviderOrderID == orderID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
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

func (m *MockTransactionRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
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

func (m *MockTransactionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Transaction
	for _, t := range m.store {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockTransactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Transaction
	for _, t := range m.store {
		if t.Status == model.TransactionStatusPending && t.CreatedAt.Before(cutoff) {
			cp := *t
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockTransactionRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, t := range m.store {
		if t.Status == model.TransactionStatusPending {
			n++
		}
	}
	return n, nil
}

// ---- Mock SettingsRepository ----

type MockSettingsRepo struct {
	mu      sync.RWMutex
	current *model.AppSettings

	GetFunc func(ctx context.Context, tx repository.Tx) (*model.AppSettings, error)
}

var _ repository.SettingsRepository = (*MockSettingsRepo)(nil)

func NewMockSettingsRepo() *MockSettingsRepo {
	return &MockSettingsRepo{}
}

func (m *MockSettingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.AppSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.current
	return &cp, nil
}

func (m *MockSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.AppSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.current = &cp
	return nil
}

// ---- Mock TransactionManager ----

// MockTxManager runs the function immediately with NoTX. Assign WithRetryFunc
// to simulate conflicts and retry behavior.
type MockTxManager struct {
	WithTxFunc    func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
	WithRetryFunc func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(ctx, repository.NoTX)
}

func (m *MockTxManager) WithRetry(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithRetryFunc != nil {
		return m.WithRetryFunc(ctx, fn)
	}
	return fn(ctx, repository.NoTX)
}

// serializingTxManager runs every WithRetry body under a process-wide mutex,
// giving unit tests the same one-writer-at-a-time guarantee the Postgres
// manager provides through SERIALIZABLE isolation.
type serializingTxManager struct {
	mu sync.Mutex
}

var _ repository.TransactionManager = (*serializingTxManager)(nil)

func (m *serializingTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

func (m *serializingTxManager) WithRetry(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

// ---- Mock PaymentProvider ----

type MockProvider struct {
	name string

	RequestCheckoutFunc func(ctx context.Context, userID, planID string, amountMinorUnits int64, currency string) (*adapter.CheckoutSession, error)

	mu    sync.Mutex
	Calls int
}

var _ adapter.PaymentProvider = (*MockProvider)(nil)

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name}
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) RequestCheckout(ctx context.Context, userID, planID string, amountMinorUnits int64, currency string) (*adapter.CheckoutSession, error) {
	m.mu.Lock()
	m.Calls++
	n := m.Calls
	m.mu.Unlock()
	if m.RequestCheckoutFunc != nil {
		return m.RequestCheckoutFunc(ctx, userID, planID, amountMinorUnits, currency)
	}
	return &adapter.CheckoutSession{
		OrderID:     fmt.Sprintf("%s-order-%d", m.name, n),
		RedirectURL: "https://pay.example/" + m.name,
	}, nil
}

// ---- Inline task runner ----

// syncRunner executes submitted tasks immediately on the caller's goroutine
// so observer assertions need no synchronization.
type syncRunner struct{}

func (syncRunner) Submit(task func(ctx context.Context) error) error {
	return task(context.Background())
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
