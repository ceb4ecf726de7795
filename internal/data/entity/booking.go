package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

type Booking struct {
	Base
	PaymentID  uuid.UUID       `db:"payment_id"`
	EventID    uuid.UUID       `db:"event_id"`
	UserID     uuid.UUID       `db:"user_id"`
	Quantity   int             `db:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Status     BookingStatus   `db:"status"`
	// ExpiresAt bounds how long a pending booking holds inventory.
	ExpiresAt time.Time `db:"expires_at"`
}
