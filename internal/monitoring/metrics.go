package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total order sessions created",
		},
	)

	paymentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Total reconciler outcomes by status",
		},
		[]string{"status"},
	)

	webhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Total webhook deliveries by result",
		},
		[]string{"result"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total tickets issued",
		},
	)

	checkins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_checkins_total",
			Help: "Total successful ticket check-ins",
		},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of payment gateway HTTP calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func OrderCreated() {
	ordersCreated.Inc()
}

func PaymentProcessed(status string) {
	paymentsProcessed.WithLabelValues(status).Inc()
}

func WebhookReceived(result string) {
	webhookRequests.WithLabelValues(result).Inc()
}

func TicketsIssued(n int) {
	ticketsIssued.Add(float64(n))
}

func CheckedIn() {
	checkins.Inc()
}

func ObserveGatewayRequest(operation string, d time.Duration) {
	gatewayRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}
