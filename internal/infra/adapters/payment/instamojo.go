package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dating-swipe-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*InstamojoProvider)(nil)

// InstamojoProvider creates Instamojo payment requests ("smart links") and
// returns the longurl as the checkout redirect. The payment_request id is the
// provider order id; confirmation arrives on the webhook route.
type InstamojoProvider struct {
	apiKey      string
	authToken   string
	callbackURL string
	sandbox     bool
	client      *http.Client
}

func NewInstamojoProvider(apiKey, authToken, callbackURL string, sandbox bool) (*InstamojoProvider, error) {
	if apiKey == "" || authToken == "" {
		return nil, errors.New("instamojo credentials empty")
	}
	return &InstamojoProvider{
		apiKey:      apiKey,
		authToken:   authToken,
		callbackURL: callbackURL,
		sandbox:     sandbox,
		client:      &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (p *InstamojoProvider) Name() string { return "instamojo" }

func (p *InstamojoProvider) endpoint() string {
	if p.sandbox {
		return "https://test.instamojo.com/api/1.1/payment-requests/"
	}
	return "https://www.instamojo.com/api/1.1/payment-requests/"
}

func (p *InstamojoProvider) RequestCheckout(ctx context.Context, userID, planID string, amountMinorUnits int64, currency string) (*adapter.CheckoutSession, error) {
	payload := map[string]interface{}{
		// Instamojo expects major units.
		"amount":                  fmt.Sprintf("%d.%02d", amountMinorUnits/100, amountMinorUnits%100),
		"purpose":                 fmt.Sprintf("plan:%s user:%s", planID, userID),
		"redirect_url":            p.callbackURL,
		"allow_repeated_payments": false,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)
	req.Header.Set("X-Auth-Token", p.authToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Success        bool `json:"success"`
		PaymentRequest struct {
			ID      string `json:"id"`
			LongURL string `json:"longurl"`
		} `json:"payment_request"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("instamojo: decode response: %w", err)
	}
	if !out.Success || out.PaymentRequest.ID == "" {
		return nil, fmt.Errorf("instamojo: payment request rejected (http %d)", resp.StatusCode)
	}
	return &adapter.CheckoutSession{
		OrderID:     out.PaymentRequest.ID,
		RedirectURL: out.PaymentRequest.LongURL,
	}, nil
}
