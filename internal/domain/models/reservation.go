package models

import "time"

// Stage of the in-progress reservation.
type Stage string

const (
	StageNone            Stage = ""
	StageSeatsChosen     Stage = "seats_chosen"
	StageAwaitingPayment Stage = "awaiting_payment"
	StageCommitted       Stage = "committed"
	StageAbandoned       Stage = "abandoned"
)

// Live reports whether the reservation can still move forward.
func (s Stage) Live() bool {
	return s == StageSeatsChosen || s == StageAwaitingPayment
}

// Reservation is the pipeline's working record, owned by one session.
type Reservation struct {
	TripID         string    `json:"tripId"`
	Trip           Trip      `json:"trip"`
	Selection      []string  `json:"selection"`
	Stage          Stage     `json:"stage"`
	PaymentMethod  string    `json:"paymentMethod,omitempty"`
	BookingID      string    `json:"bookingId,omitempty"`
	IdempotencyKey string    `json:"idempotencyKey"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Amount is the flat fare times the number of selected seats.
func (r Reservation) Amount() int64 {
	return r.Trip.Price * int64(len(r.Selection))
}

// SessionState is what a SessionStore persists for one client session.
type SessionState struct {
	Trip          *Trip        `json:"trip,omitempty"`
	SeatMap       *SeatMap     `json:"seatMap,omitempty"`
	Selection     []string     `json:"selection,omitempty"`
	Reservation   *Reservation `json:"reservation,omitempty"`
	LastBookingID string       `json:"lastBookingId,omitempty"`
}

// Identity is the authenticated user as reported by the identity provider.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
