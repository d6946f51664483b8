package domain

import (
	"errors"
	"fmt"
)

// Reservation flow errors. Every one of them is recoverable by the user;
// RecoveryFor tells the UI which way out to offer.
var (
	ErrInvalidTripCapacity = errors.New("invalid trip capacity")
	ErrSeatUnavailable     = errors.New("seat unavailable")
	ErrEmptySelection      = errors.New("no seats selected")
	ErrNoActiveReservation = errors.New("no active reservation")
	ErrPaymentInFlight     = errors.New("payment already in progress")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrAuthRequired        = errors.New("authentication required")
	ErrTripNotFound        = errors.New("trip not found")
)

// PaymentFailedError carries the gateway's failure reason.
type PaymentFailedError struct {
	Reason string
}

func (e PaymentFailedError) Error() string {
	if e.Reason == "" {
		return ErrPaymentFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPaymentFailed.Error(), e.Reason)
}

func (e PaymentFailedError) Is(target error) bool { return target == ErrPaymentFailed }

// PaymentTimeout is the reason used for transport errors and deadlines.
const PaymentTimeout = "timeout"

// NormalizePaymentError turns gateway transport failures into PaymentFailed("timeout").
func NormalizePaymentError(err error) error {
	if err == nil {
		return nil
	}
	var pf PaymentFailedError
	if errors.As(err, &pf) {
		return pf
	}
	// transport errors, deadlines and cancellations alike
	return PaymentFailedError{Reason: PaymentTimeout}
}

// PaymentFailureReason returns the reason of a PaymentFailedError, or "".
func PaymentFailureReason(err error) string {
	var pf PaymentFailedError
	if errors.As(err, &pf) {
		return pf.Reason
	}
	return ""
}

// Recovery names the user-facing way out of an error.
type Recovery string

const (
	RecoveryNone           Recovery = ""
	RecoveryReselectSeats  Recovery = "reselect_seats"
	RecoveryRetryPayment   Recovery = "retry_payment"
	RecoveryReauthenticate Recovery = "reauthenticate"
	RecoveryRestartSearch  Recovery = "restart_search"
	// RecoveryBackToSearch is only used for corrupt catalog data; retrying
	// would reproduce the same trip.
	RecoveryBackToSearch Recovery = "back_to_search"
)

func RecoveryFor(err error) Recovery {
	switch {
	case err == nil:
		return RecoveryNone
	case errors.Is(err, ErrInvalidTripCapacity):
		return RecoveryBackToSearch
	case errors.Is(err, ErrSeatUnavailable), errors.Is(err, ErrEmptySelection):
		return RecoveryReselectSeats
	case errors.Is(err, ErrPaymentFailed), errors.Is(err, ErrPaymentInFlight):
		return RecoveryRetryPayment
	case errors.Is(err, ErrAuthRequired):
		return RecoveryReauthenticate
	case errors.Is(err, ErrNoActiveReservation), errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrTripNotFound):
		return RecoveryRestartSearch
	default:
		return RecoveryNone
	}
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
