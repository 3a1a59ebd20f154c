package payment

import (
	"context"
	"errors"
	"fmt"

	"dating-swipe-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*GooglePlayProvider)(nil)

// GooglePlayProvider covers store billing: the checkout happens inside the
// Play client, so RequestCheckout only hands back the product id the app
// should launch billing with. The purchase token arrives later as the
// confirmation event's transaction id, after the RTDN/receipt verification
// layer has validated it.
type GooglePlayProvider struct {
	packageName string
	productIDs  map[string]string // plan id -> Play product id
}

func NewGooglePlayProvider(packageName string, productIDs map[string]string) (*GooglePlayProvider, error) {
	if packageName == "" {
		return nil, errors.New("play package name empty")
	}
	if productIDs == nil {
		productIDs = make(map[string]string)
	}
	return &GooglePlayProvider{packageName: packageName, productIDs: productIDs}, nil
}

func (p *GooglePlayProvider) Name() string { return "googleplay" }

func (p *GooglePlayProvider) RequestCheckout(ctx context.Context, userID, planID string, amountMinorUnits int64, currency string) (*adapter.CheckoutSession, error) {
	product, ok := p.productIDs[planID]
	if !ok {
		// Plans map 1:1 to Play products by convention when unmapped.
		product = planID
	}
	return &adapter.CheckoutSession{
		// Store billing has no server-side order yet; the client launches
		// billing and the purchase token becomes the order id on confirm.
		OrderID:     "",
		RedirectURL: fmt.Sprintf("play-billing://%s/%s?user=%s", p.packageName, product, userID),
	}, nil
}
