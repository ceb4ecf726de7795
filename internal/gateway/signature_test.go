package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"event-ticketing/pkg/utils"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"order_id":"CIT-1756300000-abc","status":"CHARGED"}`)
	digest := sign(secret, body)

	client := NewClient(utils.GatewayConfig{WebhookSecret: secret}, zap.NewNop())

	tests := []struct {
		name      string
		body      []byte
		signature string
		want      bool
	}{
		{"valid hex signature", body, hex.EncodeToString(digest), true},
		{"valid base64 signature", body, base64.StdEncoding.EncodeToString(digest), true},
		{"wrong signature", body, hex.EncodeToString(sign("other-secret", body)), false},
		{"tampered body", []byte(`{"order_id":"CIT-other","status":"CHARGED"}`), hex.EncodeToString(digest), false},
		{"empty signature", body, "", false},
		{"garbage signature", body, "not-a-digest", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.VerifySignature(tt.body, tt.signature))
		})
	}
}

func TestSignatureConfigured(t *testing.T) {
	withSecret := NewClient(utils.GatewayConfig{WebhookSecret: "whsec_test"}, zap.NewNop())
	assert.True(t, withSecret.SignatureConfigured())

	withoutSecret := NewClient(utils.GatewayConfig{}, zap.NewNop())
	assert.False(t, withoutSecret.SignatureConfigured())

	// No secret means nothing verifies, never a silent pass
	assert.False(t, withoutSecret.VerifySignature([]byte("body"), "sig"))
}
