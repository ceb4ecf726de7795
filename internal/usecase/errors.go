package usecase

import (
	"errors"
	"fmt"

	"event-ticketing/internal/data/entity"

	"github.com/google/uuid"
)

// Sentinel errors. Handlers translate these into HTTP responses; services
// wrap them with context where useful.
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrEventNotOnSale    = errors.New("event is not available for booking")
	ErrDuplicateBooking  = errors.New("user already has a confirmed booking for this event")
	ErrEmptyOrder        = errors.New("order contains no valid items")
	ErrInvalidOrderID    = errors.New("invalid order identifier")
	ErrInvalidTicketCode = errors.New("ticket code is not a valid check-in code")
	ErrForbidden         = errors.New("insufficient permissions")
)

// CapacityError reports a capacity shortfall, carrying the remaining count
// for client display.
type CapacityError struct {
	EventID   uuid.UUID
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	if e.Remaining <= 0 {
		return fmt.Sprintf("event %s is sold out", e.EventID.String())
	}
	return fmt.Sprintf("insufficient capacity for event %s: %d remaining, %d requested",
		e.EventID.String(), e.Remaining, e.Requested)
}

// SoldOut reports whether no units at all remain.
func (e *CapacityError) SoldOut() bool {
	return e.Remaining <= 0
}

// GatewayError wraps a failure while driving the payment gateway. The
// message prefix is a contract: callers classify it as a 400-class
// business failure.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("Payment gateway error: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// GatewayVerificationError means the authoritative status query failed.
// The payment stays non-terminal so a later trigger can retry.
type GatewayVerificationError struct {
	Err error
}

func (e *GatewayVerificationError) Error() string {
	return fmt.Sprintf("payment verification failed: %v", e.Err)
}

func (e *GatewayVerificationError) Unwrap() error {
	return e.Err
}

// BookingStateError reports a booking in the wrong state for the attempted
// operation; the message includes the actual status.
type BookingStateError struct {
	Status entity.BookingStatus
}

func (e *BookingStateError) Error() string {
	return fmt.Sprintf("booking status is %s, expected confirmed", e.Status)
}

// AlreadyCheckedInError is the check-in conflict; it carries the existing
// ticket so idempotent callers can treat it as non-fatal.
type AlreadyCheckedInError struct {
	Ticket *entity.Ticket
}

func (e *AlreadyCheckedInError) Error() string {
	return "ticket has already been checked in"
}
