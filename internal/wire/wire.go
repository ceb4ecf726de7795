package wire

import (
	"net/http"

	"event-ticketing/internal/adaptor"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/database"
	"event-ticketing/pkg/lock"
	"event-ticketing/pkg/middleware"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds semua dependencies
type App struct {
	Router  *chi.Mux
	Sweeper *usecase.ReservationSweeper
}

// Wiring menginisialisasi semua dependencies
func Wiring(db database.PgxIface, repo *repository.Repository, gw gateway.PaymentGateway, locker lock.Locker, config *utils.Config, logger *zap.Logger) *App {
	// Initialize services dan handlers
	service := usecase.NewService(db, repo, gw, locker, config, logger)
	handler := adaptor.NewHandler(service, gw, config, logger)

	sweeper := usecase.NewReservationSweeper(
		repo,
		service.Payment,
		config.Booking.ReservationTTL,
		config.Booking.SweepInterval,
		logger,
	)

	// Setup router
	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router:  router,
		Sweeper: sweeper,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireEvent(r, handler.Event, repo, config, logger)
	wireOrder(r, handler.Order, repo, config, logger)
	wirePayment(r, handler.Payment, repo, config, logger)
	wireTicket(r, handler.Ticket, repo, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
