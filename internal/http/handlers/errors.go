package handlers

import (
	"errors"
	"net/http"

	"busbooking/internal/domain"
	"busbooking/internal/http/middleware"
	"busbooking/internal/repositories"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	Recovery  domain.Recovery `json:"recovery,omitempty"`
	Details   any             `json:"details,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, recovery domain.Recovery, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Recovery:  recovery,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	respondDomainError(c, err, nil)
}

func respondDomainError(c *gin.Context, err error, details any) {
	rec := domain.RecoveryFor(err)
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		respondError(c, http.StatusUnauthorized, "auth_required", "please log in to continue", rec, details)
	case errors.Is(err, domain.ErrInvalidTripCapacity):
		respondError(c, http.StatusUnprocessableEntity, "invalid_trip_capacity", "trip seat data is inconsistent", rec, details)
	case errors.Is(err, domain.ErrSeatUnavailable):
		respondError(c, http.StatusConflict, "seat_unavailable", err.Error(), rec, details)
	case errors.Is(err, domain.ErrEmptySelection):
		respondError(c, http.StatusUnprocessableEntity, "empty_selection", "select at least one seat", rec, details)
	case errors.Is(err, domain.ErrNoActiveReservation):
		respondError(c, http.StatusConflict, "no_active_reservation", "no reservation in progress, start again from trip search", rec, details)
	case errors.Is(err, domain.ErrPaymentInFlight):
		respondError(c, http.StatusConflict, "payment_in_flight", "a payment is already being processed", rec, details)
	case errors.Is(err, domain.ErrPaymentFailed):
		if details == nil {
			details = gin.H{"reason": domain.PaymentFailureReason(err)}
		}
		respondError(c, http.StatusPaymentRequired, "payment_failed", err.Error(), rec, details)
	case errors.Is(err, domain.ErrBookingNotFound):
		respondError(c, http.StatusNotFound, "booking_not_found", "booking not found", rec, details)
	case errors.Is(err, domain.ErrTripNotFound):
		respondError(c, http.StatusNotFound, "trip_not_found", "trip not found", rec, details)
	case errors.Is(err, repositories.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", err.Error(), rec, details)
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), rec, details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), rec, details)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), rec, details)
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", rec, details)
	}
}
