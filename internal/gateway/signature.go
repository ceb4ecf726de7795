package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// SignatureConfigured reports whether a webhook signing secret is set.
// Without one, webhook signature checks are skipped (insecure mode).
func (c *Client) SignatureConfigured() bool {
	return c.webhookSecret != ""
}

// VerifySignature checks the HMAC-SHA256 signature over the exact raw
// webhook body. Both hex and base64 digest encodings are accepted since
// gateways differ on this. Comparison is constant-time.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if decoded, err := hex.DecodeString(signature); err == nil {
		if hmac.Equal(decoded, expected) {
			return true
		}
	}

	if decoded, err := base64.StdEncoding.DecodeString(signature); err == nil {
		if hmac.Equal(decoded, expected) {
			return true
		}
	}

	return false
}
