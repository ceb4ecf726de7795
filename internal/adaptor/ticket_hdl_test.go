package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/dto/response"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/database"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTicketService struct {
	verification *response.TicketVerification
	ticket       *response.TicketResponse
	tickets      []response.TicketResponse
	err          error
}

func (s *stubTicketService) IssueTickets(ctx context.Context, tx database.Tx, booking *entity.Booking) ([]*entity.Ticket, error) {
	return nil, errors.New("not implemented")
}

func (s *stubTicketService) GetUserTickets(ctx context.Context, requesterID, requesterRole, targetUserID string) ([]response.TicketResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tickets, nil
}

func (s *stubTicketService) VerifyTicket(ctx context.Context, code string) (*response.TicketVerification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.verification, nil
}

func (s *stubTicketService) CheckInTicket(ctx context.Context, code, staffUserID string) (*response.TicketResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ticket, nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := utils.SetUserContext(req.Context(), uuid.New(), "staff")
	return req.WithContext(ctx)
}

func TestCheckInTicketConflictCarriesTicket(t *testing.T) {
	checkedInAt := time.Now().Add(-5 * time.Minute)
	staff := uuid.New()
	existing := &entity.Ticket{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		BookingID:  uuid.New(),
		EventID:    uuid.New(),
		Code:       uuid.New().String(),
		Seq:        1,
		CheckedIn:  true,
		CheckedInAt: &checkedInAt,
		CheckedInBy: &staff,
	}

	svc := &stubTicketService{err: &usecase.AlreadyCheckedInError{Ticket: existing}}
	handler := NewTicketHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/tickets/checkin", `{"code":"`+existing.Code+`"}`)
	rec := httptest.NewRecorder()

	handler.CheckInTicket(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope struct {
		Status bool `json:"status"`
		Data   struct {
			CheckedIn   bool    `json:"checked_in"`
			CheckedInBy *string `json:"checked_in_by"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Status)
	// The earlier check-in's details come back for the door staff
	assert.True(t, envelope.Data.CheckedIn)
	require.NotNil(t, envelope.Data.CheckedInBy)
	assert.Equal(t, staff.String(), *envelope.Data.CheckedInBy)
}

func TestCheckInTicketInvalidCode(t *testing.T) {
	svc := &stubTicketService{err: usecase.ErrInvalidTicketCode}
	handler := NewTicketHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/tickets/checkin", `{"code":"garbage"}`)
	rec := httptest.NewRecorder()

	handler.CheckInTicket(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInTicketUnauthenticated(t *testing.T) {
	svc := &stubTicketService{}
	handler := NewTicketHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/tickets/checkin", strings.NewReader(`{"code":"x"}`))
	rec := httptest.NewRecorder()

	handler.CheckInTicket(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyTicketNotFound(t *testing.T) {
	svc := &stubTicketService{err: usecase.ErrTicketNotFound}
	handler := NewTicketHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/tickets/verify", `{"code":"`+uuid.New().String()+`"}`)
	rec := httptest.NewRecorder()

	handler.VerifyTicket(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUserTicketsForbidden(t *testing.T) {
	svc := &stubTicketService{err: usecase.ErrForbidden}
	handler := NewTicketHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodGet, "/api/user/tickets", "")
	rec := httptest.NewRecorder()

	handler.GetUserTickets(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
