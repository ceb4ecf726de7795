package adaptor

import (
	"errors"
	"net/http"

	"event-ticketing/internal/dto/response"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps usecase errors onto the response envelope.
// Shared across handlers so the same sentinel always produces the same
// status code.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		capErr     *usecase.CapacityError
		checkedErr *usecase.AlreadyCheckedInError
		stateErr   *usecase.BookingStateError
		gwErr      *usecase.GatewayError
		verifyErr  *usecase.GatewayVerificationError
	)

	switch {
	case errors.Is(err, usecase.ErrEventNotFound),
		errors.Is(err, usecase.ErrPaymentNotFound),
		errors.Is(err, usecase.ErrBookingNotFound),
		errors.Is(err, usecase.ErrTicketNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidOrderID),
		errors.Is(err, usecase.ErrInvalidTicketCode),
		errors.Is(err, usecase.ErrEmptyOrder):
		log.Warn("Invalid input for "+operation, zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrEventNotOnSale),
		errors.Is(err, usecase.ErrDuplicateBooking):
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.As(err, &capErr):
		log.Warn(operation+" failed - insufficient capacity",
			zap.Error(err),
			zap.String("event_id", capErr.EventID.String()),
			zap.Int("requested", capErr.Requested),
			zap.Int("remaining", capErr.Remaining),
		)
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.As(err, &checkedErr):
		// 409 carries the existing ticket so the door staff see who
		// already went in and when.
		log.Warn(operation+" failed - already checked in", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), response.TicketToResponse(checkedErr.Ticket))

	case errors.As(err, &stateErr):
		log.Warn(operation+" failed - booking not confirmed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.As(err, &gwErr):
		log.Error(operation+" failed at gateway", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.As(err, &verifyErr):
		log.Error(operation+" could not be verified", zap.Error(err))
		utils.ResponseJSON(w, http.StatusBadGateway, false, "Payment verification is temporarily unavailable, please retry", nil, nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
