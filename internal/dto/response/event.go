package response

import (
	"time"

	"event-ticketing/internal/data/entity"

	"github.com/shopspring/decimal"
)

type EventResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Venue      string          `json:"venue"`
	StartsAt   time.Time       `json:"starts_at"`
	Price      decimal.Decimal `json:"price"`
	MaxTickets int             `json:"max_tickets"`
	Status     string          `json:"status"`
	Remaining  int             `json:"remaining"`
}

func EventToResponse(event *entity.Event, remaining int) EventResponse {
	return EventResponse{
		ID:         event.ID.String(),
		Name:       event.Name,
		Venue:      event.Venue,
		StartsAt:   event.StartsAt,
		Price:      event.Price,
		MaxTickets: event.MaxTickets,
		Status:     string(event.Status),
		Remaining:  remaining,
	}
}

// EventAvailability is the cart-validation projection: authoritative price
// and availability for one requested event id.
type EventAvailability struct {
	EventID   string          `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
	Available bool            `json:"available"`
	Remaining int             `json:"remaining"`
}
