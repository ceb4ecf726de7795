package adaptor

import (
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Event   *EventHandler
	Order   *OrderHandler
	Payment *PaymentHandler
	Ticket  *TicketHandler
}

func NewHandler(service *usecase.Service, gw gateway.PaymentGateway, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Event:   NewEventHandler(service.Event, log),
		Order:   NewOrderHandler(service.Order, log),
		Payment: NewPaymentHandler(service.Payment, gw, config.Payment.RedirectURL, log),
		Ticket:  NewTicketHandler(service.Ticket, log),
	}
}
