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

type TicketRepository interface {
	CreateBatchTx(ctx context.Context, tx database.Tx, tickets []*entity.Ticket) error
	CountByBookingIDTx(ctx context.Context, tx database.Tx, bookingID uuid.UUID) (int, error)
	FindByCode(ctx context.Context, code string) (*entity.Ticket, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Ticket, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Ticket, error)
	// CheckIn flips the checked-in flag only when it is still false and
	// reports whether this call won the transition.
	CheckIn(ctx context.Context, ticketID, staffID uuid.UUID, at time.Time) (bool, error)
}

type ticketRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTicketRepository(db database.PgxIface, log *zap.Logger) TicketRepository {
	return &ticketRepository{
		db:  db,
		log: log.With(zap.String("repository", "ticket")),
	}
}

const ticketColumns = `id, booking_id, event_id, code, seq, checked_in, checked_in_at, checked_in_by, created_at`

func scanTicket(row pgx.Row) (*entity.Ticket, error) {
	var ticket entity.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.BookingID,
		&ticket.EventID,
		&ticket.Code,
		&ticket.Seq,
		&ticket.CheckedIn,
		&ticket.CheckedInAt,
		&ticket.CheckedInBy,
		&ticket.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) CreateBatchTx(ctx context.Context, tx database.Tx, tickets []*entity.Ticket) error {
	query := `
		INSERT INTO tickets (id, booking_id, event_id, code, seq, checked_in, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, ticket := range tickets {
		_, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.BookingID,
			ticket.EventID,
			ticket.Code,
			ticket.Seq,
			ticket.CheckedIn,
			ticket.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create ticket",
				zap.Error(err),
				zap.String("booking_id", ticket.BookingID.String()),
				zap.Int("seq", ticket.Seq),
			)
			return fmt.Errorf("create ticket %d for booking %s: %w", ticket.Seq, ticket.BookingID.String(), err)
		}
	}

	return nil
}

func (r *ticketRepository) CountByBookingIDTx(ctx context.Context, tx database.Tx, bookingID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE booking_id = $1`

	var count int
	err := tx.QueryRow(ctx, query, bookingID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count tickets by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return 0, fmt.Errorf("count tickets for booking %s: %w", bookingID.String(), err)
	}

	return count, nil
}

func (r *ticketRepository) FindByCode(ctx context.Context, code string) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE code = $1`

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ticket by code", zap.Error(err))
		return nil, fmt.Errorf("find ticket by code: %w", err)
	}

	return ticket, nil
}

func (r *ticketRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE booking_id = $1 ORDER BY seq`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find tickets by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find tickets by booking ID %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			r.log.Error("Failed to scan ticket row", zap.Error(err))
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, nil
}

func (r *ticketRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Ticket, error) {
	query := `
		SELECT t.id, t.booking_id, t.event_id, t.code, t.seq, t.checked_in, t.checked_in_at, t.checked_in_by, t.created_at
		FROM tickets t
		JOIN bookings b ON b.id = t.booking_id
		WHERE b.user_id = $1
		ORDER BY t.created_at DESC, t.seq
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to find tickets by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find tickets by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			r.log.Error("Failed to scan ticket row", zap.Error(err))
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, nil
}

func (r *ticketRepository) CheckIn(ctx context.Context, ticketID, staffID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET checked_in = TRUE, checked_in_at = $2, checked_in_by = $3
		WHERE id = $1 AND checked_in = FALSE
	`

	result, err := r.db.Exec(ctx, query, ticketID, at, staffID)
	if err != nil {
		r.log.Error("Failed to check in ticket",
			zap.Error(err),
			zap.String("ticket_id", ticketID.String()),
		)
		return false, fmt.Errorf("check in ticket %s: %w", ticketID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
