// Package metrics holds the prometheus collectors of the reservation flow.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReservationsConfirmed prometheus.Counter
	ReservationsAbandoned prometheus.Counter
	PaymentAttempts       *prometheus.CounterVec
	PaymentDuration       prometheus.Histogram
	BookingsCommitted     prometheus.Counter
	BookingsDeduplicated  prometheus.Counter
	AuthRedirects         prometheus.Counter

	initOnce sync.Once
)

func init() {
	Init(prometheus.DefaultRegisterer)
}

// Init creates and registers the collectors once. A nil registerer leaves
// them unregistered.
func Init(reg prometheus.Registerer) {
	initOnce.Do(func() {
		ReservationsConfirmed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reservation_confirmations_total",
			Help: "Seat selections confirmed into a reservation.",
		})
		ReservationsAbandoned = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reservations_abandoned_total",
			Help: "Reservations abandoned before commit.",
		})
		PaymentAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_attempts_total",
			Help: "Payment attempts by result.",
		}, []string{"result"})
		PaymentDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "payment_duration_seconds",
			Help:    "Time spent waiting for the payment gateway.",
			Buckets: prometheus.DefBuckets,
		})
		BookingsCommitted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_committed_total",
			Help: "Bookings written to the booking store.",
		})
		BookingsDeduplicated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_deduplicated_total",
			Help: "Commits resolved to an existing booking by idempotency key.",
		})
		AuthRedirects = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_redirects_total",
			Help: "Flow entries redirected to authentication.",
		})
		if reg != nil {
			reg.MustRegister(
				ReservationsConfirmed,
				ReservationsAbandoned,
				PaymentAttempts,
				PaymentDuration,
				BookingsCommitted,
				BookingsDeduplicated,
				AuthRedirects,
			)
		}
	})
}

// Payment results used as label values.
const (
	ResultSuccess    = "success"
	ResultFailure    = "failure"
	ResultReconciled = "reconciled"
)
