package adapter

import "context"

// ConfirmationEvent is the single shape every provider integration reduces a
// confirmed payment to, once it has already verified authenticity. The
// upgrade pipeline consumes nothing provider-specific beyond the name.
type ConfirmationEvent struct {
	UserID        string
	PlanID        string
	TransactionID string // provider order id; the idempotency key
	Provider      string
}

// CheckoutSession is the provider-side handle for a payment the user still
// has to complete (redirect URL for web gateways, product token for store
// billing).
type CheckoutSession struct {
	OrderID     string
	RedirectURL string
}

// PaymentProvider is the port for payment processors. Checkout internals
// (encryption, smart links, store billing protocols) stay behind it.
type PaymentProvider interface {
	Name() string

	// RequestCheckout initiates a payment for the given amount and returns
	// the provider order id plus where to send the user.
	RequestCheckout(ctx context.Context, userID, planID string, amountMinorUnits int64, currency string) (*CheckoutSession, error)
}
