// Package webhook receives, authenticates and routes upstream event
// deliveries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrAuthentication indicates a missing or mismatched signature. The
// request must be rejected without further processing.
var ErrAuthentication = errors.New("webhook: authentication failed")

// VerifySignature checks the keyed hash of the raw request bytes against
// the header-supplied base64 signature. It must see the untouched body:
// hashing re-serialized JSON produces false rejections.
func VerifySignature(body []byte, signature, secret string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing signature header", ErrAuthentication)
	}
	supplied, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature", ErrAuthentication)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), supplied) {
		return fmt.Errorf("%w: signature mismatch", ErrAuthentication)
	}
	return nil
}

// Sign computes the base64 signature for a payload. Used by tests and
// local tooling.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
