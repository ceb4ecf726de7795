package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"event-ticketing/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(utils.GatewayConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		MerchantID: "merchant-1",
		Timeout:    2 * time.Second,
	}, zap.NewNop())
}

func TestCreateSession(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/session", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "merchant-1", r.Header.Get("x-merchantid"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"sess_123","payment_links":{"web":"https://pay.example/sess_123"}}`))
	}))

	session, err := client.CreateSession(context.Background(), SessionRequest{
		OrderID:   "CIT-1756300000-abc",
		Amount:    decimal.NewFromInt(500),
		UserID:    "user-1",
		ReturnURL: "https://shop.example/api/payments/callback",
	})
	require.NoError(t, err)

	assert.Equal(t, "sess_123", session.SessionID)
	// The full gateway response is forwarded to the client SDK untouched
	assert.Contains(t, string(session.SDKPayload), "payment_links")
}

func TestCreateSessionGatewayError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.CreateSession(context.Background(), SessionRequest{
		OrderID: "CIT-1756300000-abc",
		Amount:  decimal.NewFromInt(500),
	})
	assert.Error(t, err)
}

func TestOrderStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		outcome Outcome
	}{
		{"charged is success", "CHARGED", OutcomeSuccess},
		{"completed is success", "COMPLETED", OutcomeSuccess},
		{"auto refunded is success", "AUTO_REFUNDED", OutcomeSuccess},
		{"declined is failed", "JUSPAY_DECLINED", OutcomeFailed},
		{"authentication failure is failed", "AUTHENTICATION_FAILED", OutcomeFailed},
		{"new is pending", "NEW", OutcomePending},
		{"pending vbv is pending", "PENDING_VBV", OutcomePending},
		{"unknown status is pending", "SOMETHING_NEW", OutcomePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/orders/CIT-1756300000-abc", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"order_id":"CIT-1756300000-abc","status":"` + tt.status + `","txn_id":"txn_9"}`))
			}))

			state, err := client.OrderStatus(context.Background(), "CIT-1756300000-abc")
			require.NoError(t, err)

			assert.Equal(t, tt.outcome, state.Outcome)
			assert.Equal(t, tt.status, state.RawStatus)
			assert.Equal(t, "txn_9", state.Reference)
		})
	}
}

func TestOrderStatusNetworkError(t *testing.T) {
	client := NewClient(utils.GatewayConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	}, zap.NewNop())

	_, err := client.OrderStatus(context.Background(), "CIT-1756300000-abc")
	assert.Error(t, err)
}
