package entity

import (
	"time"

	"github.com/google/uuid"
)

type Ticket struct {
	BaseSimple
	BookingID uuid.UUID `db:"booking_id"`
	EventID   uuid.UUID `db:"event_id"`
	// Code is the unguessable check-in token scanned at the venue.
	Code        string     `db:"code"`
	Seq         int        `db:"seq"`
	CheckedIn   bool       `db:"checked_in"`
	CheckedInAt *time.Time `db:"checked_in_at"`
	CheckedInBy *uuid.UUID `db:"checked_in_by"`
}
