package response

import (
	"time"

	"event-ticketing/internal/data/entity"
)

type TicketResponse struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"booking_id"`
	EventID     string     `json:"event_id"`
	Code        string     `json:"code"`
	Seq         int        `json:"seq"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CheckedInBy *string    `json:"checked_in_by,omitempty"`
}

func TicketToResponse(ticket *entity.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          ticket.ID.String(),
		BookingID:   ticket.BookingID.String(),
		EventID:     ticket.EventID.String(),
		Code:        ticket.Code,
		Seq:         ticket.Seq,
		CheckedIn:   ticket.CheckedIn,
		CheckedInAt: ticket.CheckedInAt,
	}
	if ticket.CheckedInBy != nil {
		by := ticket.CheckedInBy.String()
		resp.CheckedInBy = &by
	}
	return resp
}

// TicketVerification is the door-scan projection: the ticket plus enough
// booking/event context to decide admission.
type TicketVerification struct {
	Ticket  TicketResponse `json:"ticket"`
	Booking BookingSummary `json:"booking"`
	Event   EventResponse  `json:"event"`
	Valid   bool           `json:"valid"`
}
