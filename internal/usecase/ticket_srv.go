package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/dto/response"
	"event-ticketing/internal/monitoring"
	"event-ticketing/pkg/database"
	"event-ticketing/pkg/policy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// checkInCodePattern is the UUID shape a check-in code must match before
// any database lookup happens.
var checkInCodePattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

type TicketService interface {
	// IssueTickets mints one ticket per booked unit inside the reconciler's
	// success transaction. It must never run twice for the same booking.
	IssueTickets(ctx context.Context, tx database.Tx, booking *entity.Booking) ([]*entity.Ticket, error)

	GetUserTickets(ctx context.Context, requesterID, requesterRole, targetUserID string) ([]response.TicketResponse, error)
	VerifyTicket(ctx context.Context, code string) (*response.TicketVerification, error)
	CheckInTicket(ctx context.Context, code, staffUserID string) (*response.TicketResponse, error)
}

type ticketService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewTicketService(repo *repository.Repository, log *zap.Logger) TicketService {
	return &ticketService{
		repo: repo,
		log:  log.With(zap.String("service", "ticket")),
	}
}

func (s *ticketService) IssueTickets(ctx context.Context, tx database.Tx, booking *entity.Booking) ([]*entity.Ticket, error) {
	existing, err := s.repo.Ticket.CountByBookingIDTx(ctx, tx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("count issued tickets: %w", err)
	}

	if existing == booking.Quantity {
		// A crash between commit and response can re-run issuance; the
		// full set already exists, nothing to mint.
		s.log.Warn("Tickets already issued for booking",
			zap.String("booking_id", booking.ID.String()),
			zap.Int("count", existing),
		)
		return nil, nil
	}
	if existing > 0 {
		return nil, fmt.Errorf("partial ticket issuance detected for booking %s: %d of %d", booking.ID.String(), existing, booking.Quantity)
	}

	now := time.Now()
	tickets := make([]*entity.Ticket, booking.Quantity)
	for i := 0; i < booking.Quantity; i++ {
		tickets[i] = &entity.Ticket{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: now,
			},
			BookingID: booking.ID,
			EventID:   booking.EventID,
			Code:      uuid.New().String(),
			Seq:       i + 1,
		}
	}

	if err := s.repo.Ticket.CreateBatchTx(ctx, tx, tickets); err != nil {
		return nil, fmt.Errorf("issue tickets for booking %s: %w", booking.ID.String(), err)
	}

	s.log.Info("Tickets issued",
		zap.String("booking_id", booking.ID.String()),
		zap.Int("count", len(tickets)),
	)

	return tickets, nil
}

func (s *ticketService) GetUserTickets(ctx context.Context, requesterID, requesterRole, targetUserID string) ([]response.TicketResponse, error) {
	targetUUID, err := uuid.Parse(targetUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", targetUserID, err)
	}

	if requesterID != targetUserID && !policy.Allows(requesterRole, policy.CapViewAnyTicket) {
		return nil, ErrForbidden
	}

	tickets, err := s.repo.Ticket.FindByUserID(ctx, targetUUID)
	if err != nil {
		s.log.Error("Failed to get user tickets",
			zap.Error(err),
			zap.String("user_id", targetUserID),
		)
		return nil, fmt.Errorf("get user tickets: %w", err)
	}

	ticketResponses := make([]response.TicketResponse, len(tickets))
	for i, ticket := range tickets {
		ticketResponses[i] = response.TicketToResponse(ticket)
	}

	return ticketResponses, nil
}

// normalizeCode validates the UUID shape and lowercases the code. Returns
// ErrInvalidTicketCode without touching the database on a mismatch.
func normalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !checkInCodePattern.MatchString(code) {
		return "", ErrInvalidTicketCode
	}
	return strings.ToLower(code), nil
}

func (s *ticketService) VerifyTicket(ctx context.Context, code string) (*response.TicketVerification, error) {
	normalized, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	ticket, err := s.repo.Ticket.FindByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("verify ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}

	booking, err := s.repo.Booking.FindByID(ctx, ticket.BookingID)
	if err != nil || booking == nil {
		return nil, fmt.Errorf("%w: booking for ticket %s", ErrBookingNotFound, ticket.ID.String())
	}

	event, err := s.repo.Event.FindByID(ctx, ticket.EventID)
	if err != nil || event == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, ticket.EventID.String())
	}

	reserved, err := s.repo.Booking.ReservedQuantity(ctx, event.ID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("verify ticket: %w", err)
	}
	remaining := event.MaxTickets - reserved
	if remaining < 0 {
		remaining = 0
	}

	return &response.TicketVerification{
		Ticket:  response.TicketToResponse(ticket),
		Booking: response.BookingToSummary(booking, event.Name),
		Event:   response.EventToResponse(event, remaining),
		Valid:   booking.Status == entity.BookingStatusConfirmed && !ticket.CheckedIn,
	}, nil
}

func (s *ticketService) CheckInTicket(ctx context.Context, code, staffUserID string) (*response.TicketResponse, error) {
	normalized, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	staffUUID, err := uuid.Parse(staffUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid staff user ID format %s: %w", staffUserID, err)
	}

	ticket, err := s.repo.Ticket.FindByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("check in ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}

	booking, err := s.repo.Booking.FindByID(ctx, ticket.BookingID)
	if err != nil || booking == nil {
		return nil, fmt.Errorf("%w: booking for ticket %s", ErrBookingNotFound, ticket.ID.String())
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return nil, &BookingStateError{Status: booking.Status}
	}

	if ticket.CheckedIn {
		return nil, &AlreadyCheckedInError{Ticket: ticket}
	}

	now := time.Now()
	won, err := s.repo.Ticket.CheckIn(ctx, ticket.ID, staffUUID, now)
	if err != nil {
		return nil, fmt.Errorf("check in ticket: %w", err)
	}
	if !won {
		// Lost the race to a concurrent scan; report the conflict with the
		// winner's state.
		fresh, err := s.repo.Ticket.FindByCode(ctx, normalized)
		if err != nil || fresh == nil {
			return nil, &AlreadyCheckedInError{Ticket: ticket}
		}
		return nil, &AlreadyCheckedInError{Ticket: fresh}
	}

	monitoring.CheckedIn()

	s.log.Info("Ticket checked in",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("staff_id", staffUserID),
	)

	ticket.CheckedIn = true
	ticket.CheckedInAt = &now
	ticket.CheckedInBy = &staffUUID

	resp := response.TicketToResponse(ticket)
	return &resp, nil
}
