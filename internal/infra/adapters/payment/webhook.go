package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// VerifyWebhookSignature checks an HMAC-SHA256 signature over the raw
// callback body. Providers sign the exact payload bytes, so callers must
// pass the body before any decoding.
func VerifyWebhookSignature(body []byte, signature, secret string) (bool, error) {
	if secret == "" {
		return false, errors.New("webhook secret empty")
	}
	if signature == "" {
		return false, nil
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return strings.EqualFold(strings.TrimPrefix(signature, "sha256="), expected), nil
}
