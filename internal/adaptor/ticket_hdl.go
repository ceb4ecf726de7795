package adaptor

import (
	"encoding/json"
	"net/http"

	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TicketHandler struct {
	service usecase.TicketService
	log     *zap.Logger
}

func NewTicketHandler(service usecase.TicketService, log *zap.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		log:     log.With(zap.String("handler", "ticket")),
	}
}

// GetUserTickets handles GET /api/user/tickets (protected)
func (h *TicketHandler) GetUserTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	role, _ := utils.GetRoleFromContext(r.Context())

	tickets, err := h.service.GetUserTickets(r.Context(), userID.String(), role, userID.String())
	if err != nil {
		handleServiceError(w, h.log, err, "get user tickets")
		return
	}

	utils.ResponseSuccess(w, "success", tickets)
}

// GetTicketsForUser handles GET /api/users/{userID}/tickets (staff)
func (h *TicketHandler) GetTicketsForUser(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	role, _ := utils.GetRoleFromContext(r.Context())

	targetID := chi.URLParam(r, "userID")
	if targetID == "" {
		utils.ResponseBadRequest(w, "User ID is required", nil)
		return
	}

	tickets, err := h.service.GetUserTickets(r.Context(), requesterID.String(), role, targetID)
	if err != nil {
		handleServiceError(w, h.log, err, "get tickets for user")
		return
	}

	utils.ResponseSuccess(w, "success", tickets)
}

// VerifyTicket handles POST /api/tickets/verify (staff). Read-only scan
// used at the door before committing to a check-in.
func (h *TicketHandler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	verification, err := h.service.VerifyTicket(r.Context(), req.Code)
	if err != nil {
		handleServiceError(w, h.log, err, "verify ticket")
		return
	}

	utils.ResponseSuccess(w, "success", verification)
}

// CheckInTicket handles POST /api/tickets/checkin (staff)
func (h *TicketHandler) CheckInTicket(w http.ResponseWriter, r *http.Request) {
	staffID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CheckInTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	ticket, err := h.service.CheckInTicket(r.Context(), req.Code, staffID.String())
	if err != nil {
		handleServiceError(w, h.log, err, "check in ticket")
		return
	}

	utils.ResponseSuccess(w, "success", ticket)
}
