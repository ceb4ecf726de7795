package response

import (
	"time"

	"event-ticketing/internal/data/entity"

	"github.com/shopspring/decimal"
)

type PaymentResponse struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	GatewayRef *string         `json:"gateway_ref,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         payment.ID.String(),
		OrderID:    payment.OrderID,
		Amount:     payment.Amount,
		Status:     string(payment.Status),
		GatewayRef: payment.GatewayRef,
		CreatedAt:  payment.CreatedAt,
		UpdatedAt:  payment.UpdatedAt,
	}
}

// PaymentResult is the reconciler outcome returned to every trigger.
type PaymentResult struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Payment *PaymentResponse `json:"payment,omitempty"`
	Tickets []TicketResponse `json:"tickets,omitempty"`
}
