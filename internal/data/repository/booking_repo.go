package repository

import (
	"context"
	"fmt"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	CreateTx(ctx context.Context, tx database.Tx, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entity.Booking, error)
	FindByPaymentIDTx(ctx context.Context, tx database.Tx, paymentID uuid.UUID) ([]*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error
	UpdateStatusTx(ctx context.Context, tx database.Tx, bookingID uuid.UUID, status entity.BookingStatus) error

	// Inventory ledger queries
	ReservedQuantity(ctx context.Context, eventID uuid.UUID, now time.Time) (int, error)
	ReservedQuantityTx(ctx context.Context, tx database.Tx, eventID uuid.UUID, now time.Time) (int, error)
	HasConfirmedForEvent(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, payment_id, event_id, user_id, quantity, unit_price, total_price, status, expires_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.PaymentID,
		&booking.EventID,
		&booking.UserID,
		&booking.Quantity,
		&booking.UnitPrice,
		&booking.TotalPrice,
		&booking.Status,
		&booking.ExpiresAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) CreateTx(ctx context.Context, tx database.Tx, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, payment_id, event_id, user_id, quantity, unit_price, total_price, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := tx.Exec(ctx, query,
		booking.ID,
		booking.PaymentID,
		booking.EventID,
		booking.UserID,
		booking.Quantity,
		booking.UnitPrice,
		booking.TotalPrice,
		booking.Status,
		booking.ExpiresAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("event_id", booking.EventID.String()),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking for event %s: %w", booking.EventID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) findByPaymentID(ctx context.Context, q database.Querier, paymentID uuid.UUID) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_id = $1 ORDER BY created_at`

	rows, err := q.Query(ctx, query, paymentID)
	if err != nil {
		r.log.Error("Failed to find bookings by payment ID",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		return nil, fmt.Errorf("find bookings by payment ID %s: %w", paymentID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entity.Booking, error) {
	return r.findByPaymentID(ctx, r.db, paymentID)
}

func (r *bookingRepository) FindByPaymentIDTx(ctx context.Context, tx database.Tx, paymentID uuid.UUID) ([]*entity.Booking, error) {
	return r.findByPaymentID(ctx, tx, paymentID)
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) updateStatus(ctx context.Context, q database.Querier, bookingID uuid.UUID, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := q.Exec(ctx, query, bookingID, status)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", bookingID.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	return nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	return r.updateStatus(ctx, r.db, bookingID, status)
}

func (r *bookingRepository) UpdateStatusTx(ctx context.Context, tx database.Tx, bookingID uuid.UUID, status entity.BookingStatus) error {
	return r.updateStatus(ctx, tx, bookingID, status)
}

// reservedQuantity counts ticket units held against the event's capacity:
// confirmed bookings plus pending bookings whose reservation has not expired.
func (r *bookingRepository) reservedQuantity(ctx context.Context, q database.Querier, eventID uuid.UUID, now time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM bookings
		WHERE event_id = $1
		  AND (status = 'confirmed' OR (status = 'pending' AND expires_at > $2))
	`

	var reserved int
	err := q.QueryRow(ctx, query, eventID, now).Scan(&reserved)
	if err != nil {
		r.log.Error("Failed to count reserved quantity",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
		)
		return 0, fmt.Errorf("count reserved quantity for event %s: %w", eventID.String(), err)
	}

	return reserved, nil
}

func (r *bookingRepository) ReservedQuantity(ctx context.Context, eventID uuid.UUID, now time.Time) (int, error) {
	return r.reservedQuantity(ctx, r.db, eventID, now)
}

func (r *bookingRepository) ReservedQuantityTx(ctx context.Context, tx database.Tx, eventID uuid.UUID, now time.Time) (int, error) {
	return r.reservedQuantity(ctx, tx, eventID, now)
}

func (r *bookingRepository) HasConfirmedForEvent(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND event_id = $2 AND status = 'confirmed'
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, userID, eventID).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check confirmed booking",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("event_id", eventID.String()),
		)
		return false, fmt.Errorf("check confirmed booking for event %s: %w", eventID.String(), err)
	}

	return exists, nil
}
