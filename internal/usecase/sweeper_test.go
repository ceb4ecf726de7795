package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/dto/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePaymentService struct {
	mu sync.Mutex

	verifyResults map[string]*response.PaymentResult
	verifyErrs    map[string]error
	verified      []string
	expired       []string
}

func (s *fakePaymentService) VerifyAndProcessPayment(ctx context.Context, orderID string) (*response.PaymentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = append(s.verified, orderID)
	if err := s.verifyErrs[orderID]; err != nil {
		return nil, err
	}
	if result := s.verifyResults[orderID]; result != nil {
		return result, nil
	}
	return &response.PaymentResult{Status: "pending"}, nil
}

func (s *fakePaymentService) GetPaymentStatus(ctx context.Context, orderID string) (*response.PaymentResult, error) {
	return &response.PaymentResult{Status: "pending"}, nil
}

func (s *fakePaymentService) ExpireOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = append(s.expired, orderID)
	return nil
}

func newSweeperFixture(t *testing.T) (*fixture, *fakePaymentService, *ReservationSweeper) {
	t.Helper()
	f := newFixture()
	payments := &fakePaymentService{
		verifyResults: make(map[string]*response.PaymentResult),
		verifyErrs:    make(map[string]error),
	}
	sweeper := NewReservationSweeper(f.repo, payments, 15*time.Minute, 5*time.Minute, zap.NewNop())
	return f, payments, sweeper
}

func TestSweepOnceExpiresStalePending(t *testing.T) {
	f, payments, sweeper := newSweeperFixture(t)

	stale := f.seedPayment("CIT-1-stale", uuid.New(), entity.PaymentStatusPending, time.Now().Add(-30*time.Minute))
	fresh := f.seedPayment("CIT-1-fresh", uuid.New(), entity.PaymentStatusPending, time.Now().Add(-time.Minute))

	sweeper.SweepOnce(context.Background())

	// Only the stale payment was reconciled; still pending, so it expired
	assert.Equal(t, []string{stale.OrderID}, payments.verified)
	assert.Equal(t, []string{stale.OrderID}, payments.expired)
	assert.NotContains(t, payments.verified, fresh.OrderID)
}

func TestSweepOnceSettledOrdersNotExpired(t *testing.T) {
	f, payments, sweeper := newSweeperFixture(t)

	paid := f.seedPayment("CIT-1-paid", uuid.New(), entity.PaymentStatusPending, time.Now().Add(-30*time.Minute))
	payments.verifyResults[paid.OrderID] = &response.PaymentResult{Status: "success"}

	sweeper.SweepOnce(context.Background())

	// Verification settled it as paid; the hold converts, never expires
	assert.Equal(t, []string{paid.OrderID}, payments.verified)
	assert.Empty(t, payments.expired)
}

func TestSweepOnceSkipsWhenGatewayUnavailable(t *testing.T) {
	f, payments, sweeper := newSweeperFixture(t)

	stale := f.seedPayment("CIT-1-unreach", uuid.New(), entity.PaymentStatusPending, time.Now().Add(-30*time.Minute))
	payments.verifyErrs[stale.OrderID] = &GatewayVerificationError{Err: errors.New("connection refused")}

	sweeper.SweepOnce(context.Background())

	// Unverifiable orders keep their holds until the gateway answers
	assert.Equal(t, []string{stale.OrderID}, payments.verified)
	assert.Empty(t, payments.expired)
}

func TestSweepOnceTerminalPaymentsNotCandidates(t *testing.T) {
	f, payments, sweeper := newSweeperFixture(t)

	f.seedPayment("CIT-1-done", uuid.New(), entity.PaymentStatusSuccess, time.Now().Add(-2*time.Hour))
	f.seedPayment("CIT-1-lost", uuid.New(), entity.PaymentStatusFailed, time.Now().Add(-2*time.Hour))

	sweeper.SweepOnce(context.Background())

	assert.Empty(t, payments.verified)
	assert.Empty(t, payments.expired)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	_, _, sweeper := newSweeperFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
