package payment

import (
	"context"
	"fmt"
	"sync"

	"dating-swipe-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*NoopProvider)(nil)

// NoopProvider is a simple in-memory provider for tests and dev mode.
type NoopProvider struct {
	mu  sync.Mutex
	seq int64
}

func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

func (p *NoopProvider) Name() string { return "noop" }

func (p *NoopProvider) RequestCheckout(ctx context.Context, userID, planID string, amountMinorUnits int64, currency string) (*adapter.CheckoutSession, error) {
	p.mu.Lock()
	p.seq++
	orderID := fmt.Sprintf("noop-%d", p.seq)
	p.mu.Unlock()
	return &adapter.CheckoutSession{
		OrderID:     orderID,
		RedirectURL: "https://example.test/pay/" + orderID,
	}, nil
}
