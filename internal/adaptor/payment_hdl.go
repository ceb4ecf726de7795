package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/monitoring"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxWebhookBody bounds how much of a webhook payload is read before the
// signature is checked.
const maxWebhookBody = 64 << 10

var signatureHeaders = []string{
	"x-juspay-signature",
	"x-signature",
	"x-webhook-signature",
}

type PaymentHandler struct {
	service     usecase.PaymentService
	gateway     gateway.PaymentGateway
	redirectURL string
	log         *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, gw gateway.PaymentGateway, redirectURL string, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:     service,
		gateway:     gw,
		redirectURL: redirectURL,
		log:         log.With(zap.String("handler", "payment")),
	}
}

// VerifyPayment handles POST /api/payments/verify. The order ID is an
// unguessable capability token, so no session is required.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.VerifyAndProcessPayment(r.Context(), req.OrderID)
	if err != nil {
		handleServiceError(w, h.log, err, "verify payment")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// Callback handles GET and POST /api/payments/callback, the browser
// redirect leg. The outcome never rides on the redirect itself; the
// gateway is consulted and the user is forwarded to the status page with
// only a coarse result.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	rawOrderID := h.callbackOrderID(r)
	if rawOrderID == "" {
		h.redirect(w, r, "failed", "", "missing_order")
		return
	}

	// The raw value ends up in a redirect URL, so only the sanitized form
	// may leave this handler.
	orderID, ok := utils.SanitizeOrderID(rawOrderID)
	if !ok {
		h.log.Warn("Callback order ID rejected by sanitizer")
		h.redirect(w, r, "failed", "", "invalid_order")
		return
	}

	result, err := h.service.VerifyAndProcessPayment(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidOrderID),
			errors.Is(err, usecase.ErrPaymentNotFound):
			h.log.Warn("Callback for unknown order", zap.Error(err))
			h.redirect(w, r, "failed", "", "invalid_order")
		default:
			h.log.Error("Callback verification failed",
				zap.Error(err),
				zap.String("order_id", orderID),
			)
			h.redirect(w, r, "failed", orderID, "verification_failed")
		}
		return
	}

	h.redirect(w, r, result.Status, orderID, "")
}

// Webhook handles POST /api/payments/webhook. A webhook is advisory: it
// names an order worth verifying, never an outcome to apply. Once the
// payload is structurally accepted the response is 200 regardless of
// processing result, so the gateway does not retry what we will
// reconcile ourselves.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		monitoring.WebhookReceived("read_error")
		utils.ResponseBadRequest(w, "Unable to read request body", nil)
		return
	}

	if h.gateway.SignatureConfigured() {
		if !h.verifyWebhookSignature(r, body) {
			monitoring.WebhookReceived("bad_signature")
			h.log.Warn("Webhook rejected, invalid signature")
			utils.ResponseUnauthorized(w, "Invalid webhook signature")
			return
		}
	} else {
		h.log.Warn("Webhook signature verification skipped, no secret configured")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		monitoring.WebhookReceived("malformed")
		utils.ResponseBadRequest(w, "Invalid webhook payload", nil)
		return
	}

	orderID := webhookOrderID(payload)
	if orderID == "" {
		monitoring.WebhookReceived("no_order")
		h.log.Warn("Webhook carried no order ID")
		utils.ResponseSuccess(w, "ignored", nil)
		return
	}

	monitoring.WebhookReceived("accepted")

	if _, err := h.service.VerifyAndProcessPayment(r.Context(), orderID); err != nil {
		// Processing errors are not surfaced to the gateway; the sweeper
		// or the next trigger will reconcile.
		h.log.Warn("Webhook-triggered verification failed",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
	}

	utils.ResponseSuccess(w, "success", nil)
}

// GetPaymentStatus handles GET /api/payments/{orderID}/status, the
// polling endpoint. It reads persisted state only.
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		utils.ResponseBadRequest(w, "Order ID is required", nil)
		return
	}

	result, err := h.service.GetPaymentStatus(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, h.log, err, "get payment status")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

func (h *PaymentHandler) verifyWebhookSignature(r *http.Request, body []byte) bool {
	for _, header := range signatureHeaders {
		if sig := r.Header.Get(header); sig != "" {
			if h.gateway.VerifySignature(body, sig) {
				return true
			}
		}
	}
	return false
}

// callbackOrderID pulls the order ID from the query string or, on POST,
// the form body. Gateways differ on the parameter name.
func (h *PaymentHandler) callbackOrderID(r *http.Request) string {
	if id := r.URL.Query().Get("order_id"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("orderId"); id != "" {
		return id
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			if id := r.PostForm.Get("order_id"); id != "" {
				return id
			}
			if id := r.PostForm.Get("orderId"); id != "" {
				return id
			}
		}
	}

	return ""
}

func (h *PaymentHandler) redirect(w http.ResponseWriter, r *http.Request, status, orderID, reason string) {
	params := url.Values{}
	params.Set("status", status)
	if orderID != "" {
		params.Set("order_id", orderID)
	}
	if reason != "" {
		params.Set("reason", reason)
	}

	http.Redirect(w, r, h.redirectURL+"?"+params.Encode(), http.StatusFound)
}

// webhookOrderID digs the order ID out of the known payload shapes:
// top-level order_id or orderId, or the nested content.order.order_id the
// event envelope uses.
func webhookOrderID(payload map[string]any) string {
	if id, ok := payload["order_id"].(string); ok && id != "" {
		return id
	}
	if id, ok := payload["orderId"].(string); ok && id != "" {
		return id
	}

	content, ok := payload["content"].(map[string]any)
	if !ok {
		return ""
	}
	order, ok := content["order"].(map[string]any)
	if !ok {
		return ""
	}
	if id, ok := order["order_id"].(string); ok {
		return id
	}
	return ""
}
