package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCreated PaymentStatus = "created"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Terminal reports whether the status can never change again.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

type Payment struct {
	Base
	OrderID    string          `db:"order_id"`
	UserID     uuid.UUID       `db:"user_id"`
	Amount     decimal.Decimal `db:"amount"`
	Status     PaymentStatus   `db:"status"`
	GatewayRef *string         `db:"gateway_ref"`
}
