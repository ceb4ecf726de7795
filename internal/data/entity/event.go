package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

type Event struct {
	Base
	Name       string          `db:"name"`
	Venue      string          `db:"venue"`
	StartsAt   time.Time       `db:"starts_at"`
	Price      decimal.Decimal `db:"price"`
	MaxTickets int             `db:"max_tickets"`
	Status     EventStatus     `db:"status"`
}

// OnSale reports whether orders may be created for the event.
func (e *Event) OnSale() bool {
	return e.Status == EventStatusPublished || e.Status == EventStatusActive
}
