package usecase

import (
	"context"
	"fmt"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/dto/response"
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/monitoring"
	"event-ticketing/pkg/database"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxOrderItems caps how many distinct events one order may cover.
const maxOrderItems = 20

type OrderService interface {
	// CreateOrderSession reserves inventory, creates the payment intent and
	// opens a gateway checkout session.
	CreateOrderSession(ctx context.Context, userID string, req *request.CreateOrderRequest) (*response.OrderSessionResponse, error)
	GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

type orderService struct {
	db      database.PgxIface
	repo    *repository.Repository
	gateway gateway.PaymentGateway
	ttl     time.Duration
	log     *zap.Logger
}

func NewOrderService(db database.PgxIface, repo *repository.Repository, gw gateway.PaymentGateway, config *utils.Config, log *zap.Logger) OrderService {
	return &orderService{
		db:      db,
		repo:    repo,
		gateway: gw,
		ttl:     config.Booking.ReservationTTL,
		log:     log.With(zap.String("service", "order")),
	}
}

type orderItem struct {
	eventID  uuid.UUID
	quantity int
}

// sanitizeItems drops malformed event ids, coerces quantities to at least 1,
// merges duplicates and caps the list.
func sanitizeItems(items []request.OrderItem) []orderItem {
	index := make(map[uuid.UUID]int)
	var sanitized []orderItem

	for _, item := range items {
		id, err := uuid.Parse(item.EventID)
		if err != nil {
			continue
		}

		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}

		if pos, ok := index[id]; ok {
			sanitized[pos].quantity += quantity
			continue
		}

		if len(sanitized) >= maxOrderItems {
			break
		}

		index[id] = len(sanitized)
		sanitized = append(sanitized, orderItem{eventID: id, quantity: quantity})
	}

	return sanitized
}

func (s *orderService) CreateOrderSession(ctx context.Context, userID string, req *request.CreateOrderRequest) (*response.OrderSessionResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create order validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	items := sanitizeItems(req.Items)
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	// Fast pre-checks outside the transaction. The authoritative capacity
	// check repeats inside the transaction under the event row lock.
	now := time.Now()
	eventsByID := make(map[uuid.UUID]*entity.Event, len(items))
	for _, item := range items {
		event, err := s.repo.Event.FindByID(ctx, item.eventID)
		if err != nil {
			return nil, fmt.Errorf("load event: %w", err)
		}
		if event == nil {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, item.eventID.String())
		}
		if !event.OnSale() {
			return nil, fmt.Errorf("%w: %s", ErrEventNotOnSale, event.Name)
		}

		duplicate, err := s.repo.Booking.HasConfirmedForEvent(ctx, userUUID, item.eventID)
		if err != nil {
			return nil, fmt.Errorf("check duplicate booking: %w", err)
		}
		if duplicate {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBooking, event.Name)
		}

		reserved, err := s.repo.Booking.ReservedQuantity(ctx, item.eventID, now)
		if err != nil {
			return nil, fmt.Errorf("check capacity: %w", err)
		}
		if reserved+item.quantity > event.MaxTickets {
			return nil, &CapacityError{
				EventID:   item.eventID,
				Requested: item.quantity,
				Remaining: event.MaxTickets - reserved,
			}
		}

		eventsByID[item.eventID] = event
	}

	payment, bookings, err := s.createRows(ctx, userUUID, items, eventsByID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateSession(ctx, gateway.SessionRequest{
		OrderID:   payment.OrderID,
		Amount:    payment.Amount,
		UserID:    userUUID.String(),
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		s.log.Error("Failed to open gateway session",
			zap.Error(err),
			zap.String("order_id", payment.OrderID),
		)
		// Release the holds right away instead of waiting for the sweeper.
		s.abandonOrder(ctx, payment, bookings)
		return nil, &GatewayError{Err: err}
	}

	monitoring.OrderCreated()

	s.log.Info("Order session created",
		zap.String("order_id", payment.OrderID),
		zap.String("user_id", userID),
		zap.Int("bookings", len(bookings)),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)

	summaries := make([]response.BookingSummary, len(bookings))
	for i, booking := range bookings {
		summaries[i] = response.BookingToSummary(booking, eventsByID[booking.EventID].Name)
	}

	return &response.OrderSessionResponse{
		OrderID:    payment.OrderID,
		PaymentID:  payment.ID.String(),
		Amount:     payment.Amount,
		SDKPayload: session.SDKPayload,
		Bookings:   summaries,
	}, nil
}

// createRows atomically creates the payment intent and one pending booking
// per item, re-validating capacity under the event row lock.
func (s *orderService) createRows(ctx context.Context, userID uuid.UUID, items []orderItem, eventsByID map[uuid.UUID]*entity.Event) (*entity.Payment, []*entity.Booking, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(eventsByID[item.eventID].Price.Mul(decimal.NewFromInt(int64(item.quantity))))
	}

	payment := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderID: utils.GenerateOrderID(),
		UserID:  userID,
		Amount:  total,
		Status:  entity.PaymentStatusCreated,
	}

	if err := s.repo.Payment.CreateTx(ctx, tx, payment); err != nil {
		return nil, nil, fmt.Errorf("create payment: %w", err)
	}

	bookings := make([]*entity.Booking, 0, len(items))
	for _, item := range items {
		event, err := s.repo.Event.FindByIDForUpdateTx(ctx, tx, item.eventID)
		if err != nil {
			return nil, nil, fmt.Errorf("lock event: %w", err)
		}
		if event == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrEventNotFound, item.eventID.String())
		}

		reserved, err := s.repo.Booking.ReservedQuantityTx(ctx, tx, item.eventID, now)
		if err != nil {
			return nil, nil, fmt.Errorf("check capacity: %w", err)
		}
		if reserved+item.quantity > event.MaxTickets {
			return nil, nil, &CapacityError{
				EventID:   item.eventID,
				Requested: item.quantity,
				Remaining: event.MaxTickets - reserved,
			}
		}

		booking := &entity.Booking{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			PaymentID:  payment.ID,
			EventID:    item.eventID,
			UserID:     userID,
			Quantity:   item.quantity,
			UnitPrice:  event.Price,
			TotalPrice: event.Price.Mul(decimal.NewFromInt(int64(item.quantity))),
			Status:     entity.BookingStatusPending,
			ExpiresAt:  now.Add(s.ttl),
		}

		if err := s.repo.Booking.CreateTx(ctx, tx, booking); err != nil {
			return nil, nil, fmt.Errorf("create booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit order transaction: %w", err)
	}

	return payment, bookings, nil
}

// abandonOrder cancels the just-created rows after a gateway failure.
// Best effort: a leftover pending booking is reclaimed by the sweeper.
func (s *orderService) abandonOrder(ctx context.Context, payment *entity.Payment, bookings []*entity.Booking) {
	if err := s.repo.Payment.UpdateStatus(ctx, payment.ID, entity.PaymentStatusFailed, nil); err != nil {
		s.log.Warn("Failed to abandon payment", zap.Error(err), zap.String("order_id", payment.OrderID))
	}
	for _, booking := range bookings {
		if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusCancelled); err != nil {
			s.log.Warn("Failed to abandon booking", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		}
	}
}

func (s *orderService) GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userUUID)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err))
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		resp := response.BookingResponse{
			ID:         booking.ID.String(),
			EventID:    booking.EventID.String(),
			Quantity:   booking.Quantity,
			TotalPrice: booking.TotalPrice,
			Status:     string(booking.Status),
			CreatedAt:  booking.CreatedAt,
		}

		event, _ := s.repo.Event.FindByID(ctx, booking.EventID)
		if event != nil {
			resp.EventName = event.Name
			resp.Venue = event.Venue
			startsAt := event.StartsAt
			resp.StartsAt = &startsAt
		}

		payment, _ := s.repo.Payment.FindByID(ctx, booking.PaymentID)
		if payment != nil {
			resp.OrderID = payment.OrderID
		}

		bookingResponses[i] = resp
	}

	return response.NewPaginatedResponse(bookingResponses, req.Page, req.PerPage, total), nil
}
