package usecase

import (
	"context"
	"errors"
	"time"

	"event-ticketing/internal/data/repository"

	"go.uber.org/zap"
)

const sweepBatchSize = 100

// ReservationSweeper reclaims capacity held by orders whose reservation
// window lapsed without a terminal payment outcome. Every candidate is
// reconciled against the gateway first so a payment that actually went
// through is confirmed, never expired.
type ReservationSweeper struct {
	repo     *repository.Repository
	payments PaymentService
	ttl      time.Duration
	interval time.Duration
	log      *zap.Logger
}

func NewReservationSweeper(repo *repository.Repository, payments PaymentService, ttl, interval time.Duration, log *zap.Logger) *ReservationSweeper {
	return &ReservationSweeper{
		repo:     repo,
		payments: payments,
		ttl:      ttl,
		interval: interval,
		log:      log.With(zap.String("service", "sweeper")),
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *ReservationSweeper) Run(ctx context.Context) {
	s.log.Info("Reservation sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("ttl", s.ttl),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reservation sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce processes one batch of stale non-terminal payments.
func (s *ReservationSweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)

	stale, err := s.repo.Payment.FindStaleNonTerminal(ctx, cutoff, sweepBatchSize)
	if err != nil {
		s.log.Error("Failed to list stale payments", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}

	s.log.Info("Sweeping stale reservations", zap.Int("count", len(stale)))

	for _, payment := range stale {
		if ctx.Err() != nil {
			return
		}

		result, err := s.payments.VerifyAndProcessPayment(ctx, payment.OrderID)
		if err != nil {
			var gwErr *GatewayVerificationError
			if errors.As(err, &gwErr) {
				// Gateway unreachable; keep the hold and retry next sweep
				// rather than expiring a possibly paid order.
				s.log.Warn("Skipping expiry, gateway unavailable",
					zap.String("order_id", payment.OrderID),
					zap.Error(err),
				)
				continue
			}
			s.log.Error("Failed to reconcile stale payment",
				zap.String("order_id", payment.OrderID),
				zap.Error(err),
			)
			continue
		}

		// Reconciliation settled it one way or the other.
		if result.Status != "pending" && result.Status != "created" {
			continue
		}

		if err := s.payments.ExpireOrder(ctx, payment.OrderID); err != nil {
			s.log.Error("Failed to expire stale order",
				zap.String("order_id", payment.OrderID),
				zap.Error(err),
			)
		}
	}
}
