package payment

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"dating-swipe-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*CCAvenueProvider)(nil)

// CCAvenueProvider builds the encrypted checkout request CCAvenue's hosted
// page expects. The order id is generated locally and echoed back in the
// gateway's response; the working key never leaves this adapter.
type CCAvenueProvider struct {
	merchantID  string
	accessCode  string
	workingKey  []byte // MD5 of the working key, per CCAvenue's AES scheme
	callbackURL string
	gatewayURL  string
}

func NewCCAvenueProvider(merchantID, accessCode, workingKey, callbackURL string, sandbox bool) (*CCAvenueProvider, error) {
	if merchantID == "" || accessCode == "" || workingKey == "" {
		return nil, errors.New("ccavenue credentials empty")
	}
	gw := "https://secure.ccavenue.com/transaction/transaction.do"
	if sandbox {
		gw = "https://test.ccavenue.com/transaction/transaction.do"
	}
	keyDigest := md5.Sum([]byte(workingKey))
	return &CCAvenueProvider{
		merchantID:  merchantID,
		accessCode:  accessCode,
		workingKey:  keyDigest[:],
		callbackURL: callbackURL,
		gatewayURL:  gw,
	}, nil
}

func (p *CCAvenueProvider) Name() string { return "ccavenue" }

func (p *CCAvenueProvider) RequestCheckout(ctx context.Context, userID, planID string, amountMinorUnits int64, currency string) (*adapter.CheckoutSession, error) {
	orderID := uuid.NewString()
	params := url.Values{}
	params.Set("merchant_id", p.merchantID)
	params.Set("order_id", orderID)
	params.Set("amount", fmt.Sprintf("%d.%02d", amountMinorUnits/100, amountMinorUnits%100))
	params.Set("currency", currency)
	params.Set("redirect_url", p.callbackURL)
	params.Set("cancel_url", p.callbackURL)
	params.Set("merchant_param1", userID)
	params.Set("merchant_param2", planID)

	encrypted, err := p.encrypt([]byte(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ccavenue: encrypt request: %w", err)
	}

	redirect := fmt.Sprintf("%s?command=initiateTransaction&access_code=%s&encRequest=%s",
		p.gatewayURL, url.QueryEscape(p.accessCode), url.QueryEscape(encrypted))
	return &adapter.CheckoutSession{
		OrderID:     orderID,
		RedirectURL: redirect,
	}, nil
}

// encrypt applies CCAvenue's AES-128-CBC scheme with the fixed IV the
// gateway documents.
func (p *CCAvenueProvider) encrypt(plain []byte) (string, error) {
	block, err := aes.NewCipher(p.workingKey)
	if err != nil {
		return "", err
	}
	iv := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

	padLen := aes.BlockSize - len(plain)%aes.BlockSize
	padded := make([]byte, len(plain)+padLen)
	copy(padded, plain)
	for i := len(plain); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out), nil
}
