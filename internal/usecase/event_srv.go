package usecase

import (
	"context"
	"fmt"
	"time"

	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxCartEntries caps how many event ids a single cart validation accepts.
const maxCartEntries = 50

type EventService interface {
	ListEvents(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.EventResponse], error)
	GetEvent(ctx context.Context, eventID string) (*response.EventResponse, error)

	// ValidateCart re-fetches authoritative price and availability for the
	// requested event ids. Client-held cart state is never trusted.
	ValidateCart(ctx context.Context, req *request.CartValidationRequest) ([]response.EventAvailability, error)
}

type eventService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewEventService(repo *repository.Repository, log *zap.Logger) EventService {
	return &eventService{
		repo: repo,
		log:  log.With(zap.String("service", "event")),
	}
}

func (s *eventService) ListEvents(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.EventResponse], error) {
	events, err := s.repo.Event.FindOnSale(ctx, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list events", zap.Error(err))
		return nil, fmt.Errorf("list events: %w", err)
	}

	total, err := s.repo.Event.CountOnSale(ctx)
	if err != nil {
		s.log.Error("Failed to count events", zap.Error(err))
		return nil, fmt.Errorf("count events: %w", err)
	}

	now := time.Now()
	eventResponses := make([]response.EventResponse, len(events))
	for i, event := range events {
		remaining, err := s.remaining(ctx, event.ID, event.MaxTickets, now)
		if err != nil {
			return nil, err
		}
		eventResponses[i] = response.EventToResponse(event, remaining)
	}

	return response.NewPaginatedResponse(eventResponses, req.Page, req.PerPage, total), nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*response.EventResponse, error) {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID format %s: %w", eventID, err)
	}

	event, err := s.repo.Event.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	remaining, err := s.remaining(ctx, event.ID, event.MaxTickets, time.Now())
	if err != nil {
		return nil, err
	}

	resp := response.EventToResponse(event, remaining)
	return &resp, nil
}

func (s *eventService) ValidateCart(ctx context.Context, req *request.CartValidationRequest) ([]response.EventAvailability, error) {
	// Drop malformed ids, dedupe, cap the list
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, raw := range req.EventIDs {
		if len(ids) >= maxCartEntries {
			break
		}
		id, err := uuid.Parse(raw)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, ErrEmptyOrder
	}

	events, err := s.repo.Event.FindByIDs(ctx, ids)
	if err != nil {
		s.log.Error("Failed to load cart events", zap.Error(err))
		return nil, fmt.Errorf("validate cart: %w", err)
	}

	now := time.Now()
	availabilities := make([]response.EventAvailability, 0, len(events))
	for _, event := range events {
		remaining, err := s.remaining(ctx, event.ID, event.MaxTickets, now)
		if err != nil {
			return nil, err
		}

		availabilities = append(availabilities, response.EventAvailability{
			EventID:   event.ID.String(),
			Name:      event.Name,
			Price:     event.Price,
			Status:    string(event.Status),
			Available: event.OnSale() && remaining > 0,
			Remaining: remaining,
		})
	}

	s.log.Info("Cart validated",
		zap.Int("requested", len(req.EventIDs)),
		zap.Int("resolved", len(availabilities)),
	)

	return availabilities, nil
}

func (s *eventService) remaining(ctx context.Context, eventID uuid.UUID, maxTickets int, now time.Time) (int, error) {
	reserved, err := s.repo.Booking.ReservedQuantity(ctx, eventID, now)
	if err != nil {
		return 0, fmt.Errorf("count reserved for event %s: %w", eventID.String(), err)
	}

	remaining := maxTickets - reserved
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
