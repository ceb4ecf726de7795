package wire

import (
	"event-ticketing/internal/adaptor"
	"event-ticketing/internal/data/repository"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireEvent(
	r chi.Router,
	eventHandler *adaptor.EventHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/events - Browse published events
	r.Get("/api/events", eventHandler.ListEvents)

	// GET /api/events/{id} - Event detail with remaining capacity
	r.Get("/api/events/{id}", eventHandler.GetEvent)

	// POST /api/cart/validate - Pre-checkout availability check
	r.Post("/api/cart/validate", eventHandler.ValidateCart)
}
