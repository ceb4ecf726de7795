package wire

import (
	"event-ticketing/internal/adaptor"
	"event-ticketing/internal/data/repository"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// Payment routes are unauthenticated: the gateway's redirect and
	// webhook cannot carry a session, and the order ID is an unguessable
	// capability token.

	// POST /api/payments/verify - Explicit verification trigger
	r.Post("/api/payments/verify", paymentHandler.VerifyPayment)

	// GET|POST /api/payments/callback - Gateway browser redirect
	r.Get("/api/payments/callback", paymentHandler.Callback)
	r.Post("/api/payments/callback", paymentHandler.Callback)

	// POST /api/payments/webhook - Signed server-to-server notification
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	// GET /api/payments/{orderID}/status - Frontend polling endpoint
	r.Get("/api/payments/{orderID}/status", paymentHandler.GetPaymentStatus)
}
