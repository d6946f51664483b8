package models

import "time"

// BookingStatus follows pending -> confirmed -> completed, or cancelled.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking is the durable record written once payment succeeds.
type Booking struct {
	ID             string        `json:"id"`
	Reference      string        `json:"reference"`
	TripID         string        `json:"tripId"`
	Trip           Trip          `json:"trip"`
	Seats          []Seat        `json:"seats"`
	TotalPrice     int64         `json:"totalPrice"`
	Status         BookingStatus `json:"status"`
	PaymentMethod  string        `json:"paymentMethod"`
	TransactionID  string        `json:"transactionId,omitempty"`
	SessionID      string        `json:"-"`
	IdempotencyKey string        `json:"-"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// CanTransition reports whether a status change is allowed.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	switch s {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCompleted || to == BookingCancelled
	default:
		return false
	}
}

// SeatNumbers returns the booked seat numbers.
func (b Booking) SeatNumbers() []int {
	out := make([]int, 0, len(b.Seats))
	for _, s := range b.Seats {
		out = append(out, s.Number)
	}
	return out
}
