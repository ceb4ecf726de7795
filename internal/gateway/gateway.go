// Package gateway talks to the external payment processor. The processor is
// the source of truth for payment outcomes; nothing it pushes to us is
// trusted unless it arrives over a signed webhook or is queried directly.
package gateway

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Outcome is the normalized verdict for an order.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

type SessionRequest struct {
	OrderID   string
	Amount    decimal.Decimal
	UserID    string
	ReturnURL string
}

type Session struct {
	// SessionID is the gateway's identifier for the checkout session.
	SessionID string
	// SDKPayload is the gateway response forwarded verbatim to the client.
	SDKPayload json.RawMessage
}

type OrderState struct {
	Outcome   Outcome
	RawStatus string
	// Reference is the gateway-side transaction identifier, when present.
	Reference string
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	OrderStatus(ctx context.Context, orderID string) (*OrderState, error)
	// VerifySignature checks an HMAC signature over the raw webhook body.
	VerifySignature(body []byte, signature string) bool
	SignatureConfigured() bool
}

// mapStatus normalizes the gateway's order status vocabulary. Unknown
// statuses map to pending so a later verification can settle them.
func mapStatus(raw string) Outcome {
	switch raw {
	case "CHARGED", "COMPLETED", "SUCCESS", "AUTO_REFUNDED":
		return OutcomeSuccess
	case "AUTHENTICATION_FAILED", "AUTHORIZATION_FAILED", "JUSPAY_DECLINED", "FAILURE", "FAILED":
		return OutcomeFailed
	default:
		return OutcomePending
	}
}
