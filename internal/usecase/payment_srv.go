package usecase

import (
	"context"
	"fmt"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/dto/response"
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/monitoring"
	"event-ticketing/pkg/database"
	"event-ticketing/pkg/lock"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type PaymentService interface {
	// VerifyAndProcessPayment is the single authoritative transition
	// function for an order. It is idempotent: any number of invocations,
	// from any trigger, converge on one terminal outcome and perform the
	// booking confirmation and ticket issuance at most once.
	VerifyAndProcessPayment(ctx context.Context, rawOrderID string) (*response.PaymentResult, error)

	// GetPaymentStatus returns the persisted snapshot without contacting
	// the gateway.
	GetPaymentStatus(ctx context.Context, rawOrderID string) (*response.PaymentResult, error)

	// ExpireOrder abandons a stale non-terminal order, releasing its
	// inventory holds. Used by the reservation sweeper after the gateway
	// has been consulted.
	ExpireOrder(ctx context.Context, rawOrderID string) error
}

type paymentService struct {
	db      database.PgxIface
	repo    *repository.Repository
	gateway gateway.PaymentGateway
	locker  lock.Locker
	tickets TicketService
	log     *zap.Logger
}

func NewPaymentService(db database.PgxIface, repo *repository.Repository, gw gateway.PaymentGateway, locker lock.Locker, tickets TicketService, log *zap.Logger) PaymentService {
	return &paymentService{
		db:      db,
		repo:    repo,
		gateway: gw,
		locker:  locker,
		tickets: tickets,
		log:     log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) VerifyAndProcessPayment(ctx context.Context, rawOrderID string) (*response.PaymentResult, error) {
	orderID, ok := utils.SanitizeOrderID(rawOrderID)
	if !ok {
		return nil, ErrInvalidOrderID
	}

	// Redirect callback, webhook and explicit verify race in here; the
	// per-order lock makes steps 2-4 one critical section.
	release, err := s.locker.Acquire(ctx, "payment:"+orderID)
	if err != nil {
		return nil, fmt.Errorf("acquire order lock %s: %w", orderID, err)
	}
	defer release()

	payment, err := s.repo.Payment.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, orderID)
	}

	// Terminal short-circuit: webhook retries and duplicate callbacks get
	// the stored outcome without another gateway round-trip.
	if payment.Status.Terminal() {
		s.log.Info("Payment already terminal, short-circuiting",
			zap.String("order_id", orderID),
			zap.String("status", string(payment.Status)),
		)
		return s.storedResult(ctx, payment, "Payment already processed")
	}

	// Caller-supplied status is never trusted; the gateway is queried
	// directly. A query failure leaves the payment non-terminal so the
	// next trigger retries.
	state, err := s.gateway.OrderStatus(ctx, orderID)
	if err != nil {
		s.log.Warn("Gateway status query failed",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return nil, &GatewayVerificationError{Err: err}
	}

	switch state.Outcome {
	case gateway.OutcomeSuccess:
		return s.applySuccess(ctx, orderID, state)

	case gateway.OutcomeFailed:
		return s.applyFailure(ctx, orderID, state)

	default:
		if payment.Status == entity.PaymentStatusCreated {
			if err := s.repo.Payment.UpdateStatus(ctx, payment.ID, entity.PaymentStatusPending, gatewayRef(state)); err != nil {
				return nil, fmt.Errorf("mark payment pending: %w", err)
			}
			payment.Status = entity.PaymentStatusPending
		}

		monitoring.PaymentProcessed("pending")

		return &response.PaymentResult{
			Status:  string(entity.PaymentStatusPending),
			Message: "Payment is still being processed",
			Payment: paymentSnapshot(payment),
		}, nil
	}
}

// applySuccess performs the one-shot success transition: payment success,
// every booking confirmed, tickets issued, all in one transaction guarded
// by a row lock on the payment.
func (s *paymentService) applySuccess(ctx context.Context, orderID string, state *gateway.OrderState) (*response.PaymentResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin success transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	payment, err := s.repo.Payment.FindByOrderIDForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lock payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, orderID)
	}

	// Second idempotence guard after the row lock: a concurrent trigger
	// may have completed the transition while we queried the gateway.
	if payment.Status.Terminal() {
		return s.storedResult(ctx, payment, "Payment already processed")
	}

	if err := s.repo.Payment.UpdateStatusTx(ctx, tx, payment.ID, entity.PaymentStatusSuccess, gatewayRef(state)); err != nil {
		return nil, fmt.Errorf("mark payment success: %w", err)
	}

	bookings, err := s.repo.Booking.FindByPaymentIDTx(ctx, tx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	issued := 0
	for _, booking := range bookings {
		// The duplicate-booking rule is enforced at order creation; two
		// paid orders for the same event racing past that check are only
		// flagged, never refunded here.
		dup, err := s.repo.Booking.HasConfirmedForEvent(ctx, booking.UserID, booking.EventID)
		if err != nil {
			s.log.Warn("Duplicate booking check failed",
				zap.Error(err),
				zap.String("order_id", orderID),
			)
		} else if dup {
			s.log.Warn("Confirming booking despite existing confirmed booking",
				zap.String("order_id", orderID),
				zap.String("user_id", booking.UserID.String()),
				zap.String("event_id", booking.EventID.String()),
			)
		}

		if err := s.repo.Booking.UpdateStatusTx(ctx, tx, booking.ID, entity.BookingStatusConfirmed); err != nil {
			return nil, fmt.Errorf("confirm booking: %w", err)
		}

		tickets, err := s.tickets.IssueTickets(ctx, tx, booking)
		if err != nil {
			return nil, fmt.Errorf("issue tickets: %w", err)
		}
		issued += len(tickets)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit success transaction: %w", err)
	}

	monitoring.PaymentProcessed("success")
	monitoring.TicketsIssued(issued)

	s.log.Info("Payment confirmed",
		zap.String("order_id", orderID),
		zap.String("gateway_status", state.RawStatus),
		zap.Int("bookings", len(bookings)),
		zap.Int("tickets", issued),
	)

	payment.Status = entity.PaymentStatusSuccess
	if ref := gatewayRef(state); ref != nil {
		payment.GatewayRef = ref
	}

	return s.storedResult(ctx, payment, "Payment verified successfully")
}

func (s *paymentService) applyFailure(ctx context.Context, orderID string, state *gateway.OrderState) (*response.PaymentResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin failure transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	payment, err := s.repo.Payment.FindByOrderIDForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lock payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, orderID)
	}

	if payment.Status.Terminal() {
		return s.storedResult(ctx, payment, "Payment already processed")
	}

	if err := s.repo.Payment.UpdateStatusTx(ctx, tx, payment.ID, entity.PaymentStatusFailed, gatewayRef(state)); err != nil {
		return nil, fmt.Errorf("mark payment failed: %w", err)
	}

	bookings, err := s.repo.Booking.FindByPaymentIDTx(ctx, tx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	// Cancelling the bookings releases the reserved capacity.
	for _, booking := range bookings {
		if err := s.repo.Booking.UpdateStatusTx(ctx, tx, booking.ID, entity.BookingStatusCancelled); err != nil {
			return nil, fmt.Errorf("cancel booking: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit failure transaction: %w", err)
	}

	monitoring.PaymentProcessed("failed")

	s.log.Info("Payment failed",
		zap.String("order_id", orderID),
		zap.String("gateway_status", state.RawStatus),
		zap.Int("bookings", len(bookings)),
	)

	payment.Status = entity.PaymentStatusFailed

	return &response.PaymentResult{
		Status:  string(entity.PaymentStatusFailed),
		Message: "Payment failed",
		Payment: paymentSnapshot(payment),
	}, nil
}

func (s *paymentService) GetPaymentStatus(ctx context.Context, rawOrderID string) (*response.PaymentResult, error) {
	orderID, ok := utils.SanitizeOrderID(rawOrderID)
	if !ok {
		return nil, ErrInvalidOrderID
	}

	payment, err := s.repo.Payment.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, orderID)
	}

	return &response.PaymentResult{
		Status:  string(payment.Status),
		Message: "Current payment status",
		Payment: paymentSnapshot(payment),
	}, nil
}

func (s *paymentService) ExpireOrder(ctx context.Context, rawOrderID string) error {
	orderID, ok := utils.SanitizeOrderID(rawOrderID)
	if !ok {
		return ErrInvalidOrderID
	}

	release, err := s.locker.Acquire(ctx, "payment:"+orderID)
	if err != nil {
		return fmt.Errorf("acquire order lock %s: %w", orderID, err)
	}
	defer release()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin expire transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	payment, err := s.repo.Payment.FindByOrderIDForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("lock payment: %w", err)
	}
	if payment == nil {
		return fmt.Errorf("%w: %s", ErrPaymentNotFound, orderID)
	}
	if payment.Status.Terminal() {
		return nil
	}

	if err := s.repo.Payment.UpdateStatusTx(ctx, tx, payment.ID, entity.PaymentStatusFailed, nil); err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}

	bookings, err := s.repo.Booking.FindByPaymentIDTx(ctx, tx, payment.ID)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	for _, booking := range bookings {
		if err := s.repo.Booking.UpdateStatusTx(ctx, tx, booking.ID, entity.BookingStatusExpired); err != nil {
			return fmt.Errorf("expire booking: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit expire transaction: %w", err)
	}

	monitoring.PaymentProcessed("expired")

	s.log.Info("Stale order expired",
		zap.String("order_id", orderID),
		zap.Int("bookings", len(bookings)),
	)

	return nil
}

// storedResult builds the result payload from persisted state; tickets are
// included for successful payments.
func (s *paymentService) storedResult(ctx context.Context, payment *entity.Payment, message string) (*response.PaymentResult, error) {
	result := &response.PaymentResult{
		Status:  string(payment.Status),
		Message: message,
		Payment: paymentSnapshot(payment),
	}

	if payment.Status != entity.PaymentStatusSuccess {
		return result, nil
	}

	bookings, err := s.repo.Booking.FindByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	for _, booking := range bookings {
		tickets, err := s.repo.Ticket.FindByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("load tickets: %w", err)
		}
		for _, ticket := range tickets {
			result.Tickets = append(result.Tickets, response.TicketToResponse(ticket))
		}
	}

	return result, nil
}

func paymentSnapshot(payment *entity.Payment) *response.PaymentResponse {
	resp := response.PaymentToResponse(payment)
	return &resp
}

func gatewayRef(state *gateway.OrderState) *string {
	if state == nil || state.Reference == "" {
		return nil
	}
	ref := state.Reference
	return &ref
}
