package usecase

import (
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/gateway"
	"event-ticketing/pkg/database"
	"event-ticketing/pkg/lock"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Event   EventService
	Order   OrderService
	Payment PaymentService
	Ticket  TicketService
}

func NewService(db database.PgxIface, repo *repository.Repository, gw gateway.PaymentGateway, locker lock.Locker, config *utils.Config, log *zap.Logger) *Service {
	tickets := NewTicketService(repo, log)

	return &Service{
		Event:   NewEventService(repo, log),
		Order:   NewOrderService(db, repo, gw, config, log),
		Payment: NewPaymentService(db, repo, gw, locker, tickets, log),
		Ticket:  tickets,
	}
}
