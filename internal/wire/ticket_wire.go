package wire

import (
	"event-ticketing/internal/adaptor"
	"event-ticketing/internal/data/repository"
	"event-ticketing/pkg/middleware"
	"event-ticketing/pkg/policy"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTicket(
	r chi.Router,
	ticketHandler *adaptor.TicketHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// GET /api/user/tickets - View own tickets
		r.Get("/api/user/tickets", ticketHandler.GetUserTickets)
	})

	// ==================== STAFF ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Require(policy.CapViewAnyTicket, log))

		// GET /api/users/{userID}/tickets - View any user's tickets (staff)
		r.Get("/api/users/{userID}/tickets", ticketHandler.GetTicketsForUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Require(policy.CapCheckInTicket, log))

		// POST /api/tickets/verify - Door scan without state change (staff)
		r.Post("/api/tickets/verify", ticketHandler.VerifyTicket)

		// POST /api/tickets/checkin - One-shot check-in (staff)
		r.Post("/api/tickets/checkin", ticketHandler.CheckInTicket)
	})
}
