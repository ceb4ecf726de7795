package response

import (
	"encoding/json"
	"time"

	"event-ticketing/internal/data/entity"

	"github.com/shopspring/decimal"
)

type BookingSummary struct {
	ID         string          `json:"id"`
	EventID    string          `json:"event_id"`
	EventName  string          `json:"event_name,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     string          `json:"status"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

func BookingToSummary(booking *entity.Booking, eventName string) BookingSummary {
	return BookingSummary{
		ID:         booking.ID.String(),
		EventID:    booking.EventID.String(),
		EventName:  eventName,
		Quantity:   booking.Quantity,
		UnitPrice:  booking.UnitPrice,
		TotalPrice: booking.TotalPrice,
		Status:     string(booking.Status),
		ExpiresAt:  booking.ExpiresAt,
	}
}

type OrderSessionResponse struct {
	OrderID   string          `json:"order_id"`
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	// SDKPayload is the gateway session response, forwarded verbatim.
	SDKPayload json.RawMessage  `json:"sdk_payload"`
	Bookings   []BookingSummary `json:"bookings"`
}

type BookingResponse struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	EventID    string          `json:"event_id"`
	EventName  string          `json:"event_name,omitempty"`
	Venue      string          `json:"venue,omitempty"`
	StartsAt   *time.Time      `json:"starts_at,omitempty"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}
