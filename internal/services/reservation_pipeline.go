package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"busbooking/internal/auth"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/gateway"
	"busbooking/internal/metrics"
	"busbooking/internal/notify"
	"busbooking/internal/repositories"
	"busbooking/internal/selection"
	"busbooking/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeatMapSource produces the seat inventory of a trip.
type SeatMapSource interface {
	GenerateContext(ctx context.Context, trip models.Trip) (models.SeatMap, error)
}

// PipelineDeps are the collaborators shared by every session.
type PipelineDeps struct {
	Catalog  repositories.TripCatalog
	SeatMaps SeatMapSource
	Gateway  gateway.PaymentGateway
	Bookings repositories.BookingStore
	Sessions repositories.SessionStore
	Identity auth.IdentityProvider
	// Notifier receives every session's notifications in addition to the
	// session's own queue.
	Notifier notify.Sink
	Now      func() time.Time
}

func (d PipelineDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ReservationPipeline drives one client session from seat selection to a
// committed booking. At most one payment is in flight per pipeline.
type ReservationPipeline struct {
	deps      PipelineDeps
	sessionID string
	gate      *auth.Gate
	queue     *notify.Queue
	notifier  notify.Sink

	mu            sync.Mutex
	trip          *models.Trip
	seats         *selection.Store
	reservation   *models.Reservation
	lastBookingID string
	inFlight      bool
	lastSeen      time.Time
}

func NewReservationPipeline(deps PipelineDeps, sessionID string) *ReservationPipeline {
	q := notify.NewQueue()
	sinks := notify.Multi{q}
	if deps.Notifier != nil {
		sinks = append(sinks, deps.Notifier)
	}
	return &ReservationPipeline{
		deps:      deps,
		sessionID: sessionID,
		gate:      auth.NewGate(deps.Identity, sinks),
		queue:     q,
		notifier:  sinks,
		lastSeen:  deps.now(),
	}
}

func (p *ReservationPipeline) SessionID() string { return p.sessionID }

func (p *ReservationPipeline) Gate() *auth.Gate { return p.gate }

// Notifications drains the session's pending toasts.
func (p *ReservationPipeline) Notifications() []notify.Message {
	return p.queue.Drain()
}

// EnterFlow is the guarded entry for tripID. Without an identity only the
// sign-in hand-off happens. Re-entering the trip of a live reservation
// resumes it with the same seat map.
func (p *ReservationPipeline) EnterFlow(ctx context.Context, tripID string) (models.SeatMap, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return models.SeatMap{}, domain.ValidationError{Field: "trip_id", Msg: "required"}
	}
	ctx = auth.WithSessionID(ctx, p.sessionID)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()

	p.gate.Reset()
	if _, err := p.gate.Enter(ctx, tripID); err != nil {
		return models.SeatMap{}, err
	}

	if p.resumable(tripID) {
		utils.LogEvent(p.sessionID, "reservation", "enter_flow", "resume trip "+tripID)
		return p.seats.SeatMap(), nil
	}

	trip, err := p.deps.Catalog.GetTrip(ctx, tripID)
	if err != nil {
		return models.SeatMap{}, err
	}
	seatMap, err := p.deps.SeatMaps.GenerateContext(ctx, trip)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTripCapacity) {
			p.notifier.Notify(domain.NotifyError, "This trip has inconsistent seat data. Please choose another trip.")
		}
		return models.SeatMap{}, err
	}

	if p.reservation != nil && p.reservation.Stage.Live() {
		p.abandonLocked("switched to trip " + tripID)
	}
	p.reservation = nil
	p.trip = &trip
	if p.seats == nil {
		p.seats = selection.New(seatMap)
	} else {
		p.seats.Reset(seatMap)
	}
	p.persist(ctx)
	utils.LogEvent(p.sessionID, "reservation", "enter_flow",
		fmt.Sprintf("trip=%s seats=%d occupied=%d", trip.ID, len(seatMap.Seats), seatMap.OccupiedCount()))
	return seatMap, nil
}

func (p *ReservationPipeline) resumable(tripID string) bool {
	if p.trip == nil || p.seats == nil || p.trip.ID != tripID {
		return false
	}
	return p.reservation == nil || p.reservation.Stage != models.StageCommitted
}

// ToggleSeat flips seatID in the selection and reports its new membership.
// Changing the seats of a confirmed reservation abandons it; the new
// selection has to be confirmed again.
func (p *ReservationPipeline) ToggleSeat(ctx context.Context, seatID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()
	if p.seats == nil {
		return false, domain.ErrNoActiveReservation
	}
	if p.inFlight {
		return false, domain.ErrPaymentInFlight
	}
	selected, err := p.seats.Select(seatID)
	if err != nil {
		return false, err
	}
	p.dropStaleReservationLocked("selection changed")
	p.persist(ctx)
	return selected, nil
}

func (p *ReservationPipeline) ClearSelection(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()
	if p.seats == nil {
		return domain.ErrNoActiveReservation
	}
	if p.inFlight {
		return domain.ErrPaymentInFlight
	}
	p.seats.Clear()
	p.dropStaleReservationLocked("selection cleared")
	p.persist(ctx)
	return nil
}

// dropStaleReservationLocked abandons the live reservation when the current
// selection no longer matches it.
func (p *ReservationPipeline) dropStaleReservationLocked(why string) {
	cur := p.reservation
	if cur == nil || !cur.Stage.Live() {
		return
	}
	if p.trip != nil && cur.TripID == p.trip.ID && slices.Equal(cur.Selection, p.seats.IDs()) {
		return
	}
	p.abandonLocked(why)
}

// ConfirmSelection turns the current selection into a seats_chosen
// reservation. Confirming the selection of the current live reservation
// again returns it unchanged.
func (p *ReservationPipeline) ConfirmSelection(ctx context.Context) (models.Reservation, error) {
	ctx = auth.WithSessionID(ctx, p.sessionID)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()

	if p.seats == nil || p.trip == nil {
		return models.Reservation{}, domain.ErrNoActiveReservation
	}
	if err := p.ensureAuthenticated(ctx, p.trip.ID); err != nil {
		return models.Reservation{}, err
	}
	ids := p.seats.IDs()
	if len(ids) == 0 {
		return models.Reservation{}, domain.ErrEmptySelection
	}

	if cur := p.reservation; cur != nil && cur.Stage.Live() && cur.TripID == p.trip.ID && slices.Equal(cur.Selection, ids) {
		return cloneReservation(*cur), nil
	}
	if p.inFlight {
		return models.Reservation{}, domain.ErrPaymentInFlight
	}
	if cur := p.reservation; cur != nil && cur.Stage.Live() {
		p.abandonLocked("replaced by a new selection")
	}

	now := p.deps.now()
	res := &models.Reservation{
		TripID:         p.trip.ID,
		Trip:           *p.trip,
		Selection:      ids,
		Stage:          models.StageSeatsChosen,
		IdempotencyKey: IdempotencyKey(p.trip.ID, ids, p.sessionID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.reservation = res
	p.persist(ctx)

	metrics.ReservationsConfirmed.Inc()
	p.notifier.Notify(domain.NotifyInfo, fmt.Sprintf("%d seat(s) reserved. Total %s. Proceed to payment.",
		len(ids), utils.FormatBirr(res.Amount())))
	utils.LogEvent(p.sessionID, "reservation", "confirm", fmt.Sprintf("trip=%s seats=%v", res.TripID, ids))
	return cloneReservation(*res), nil
}

// EnterPayment moves a seats_chosen reservation to awaiting_payment.
func (p *ReservationPipeline) EnterPayment(ctx context.Context) (models.Reservation, error) {
	ctx = auth.WithSessionID(ctx, p.sessionID)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()

	res := p.reservation
	if res == nil || !res.Stage.Live() || len(res.Selection) == 0 {
		return models.Reservation{}, domain.ErrNoActiveReservation
	}
	if err := p.ensureAuthenticated(ctx, res.TripID); err != nil {
		return models.Reservation{}, err
	}
	if res.Stage == models.StageSeatsChosen {
		res.Stage = models.StageAwaitingPayment
		res.UpdatedAt = p.deps.now()
		p.persist(ctx)
	}
	return cloneReservation(*res), nil
}

// SubmitPayment charges the reservation's amount with method. The charge
// runs detached from ctx: once started it is never cancelled by the caller.
func (p *ReservationPipeline) SubmitPayment(ctx context.Context, rawMethod string) (models.Booking, error) {
	method, ok := gateway.ParseMethod(rawMethod)
	if !ok {
		return models.Booking{}, domain.ValidationError{Field: "method", Msg: "unsupported payment method"}
	}
	ctx = auth.WithSessionID(ctx, p.sessionID)

	p.mu.Lock()
	p.touch()
	res := p.reservation
	if res == nil || !res.Stage.Live() || len(res.Selection) == 0 {
		p.mu.Unlock()
		return models.Booking{}, domain.ErrNoActiveReservation
	}
	if p.inFlight {
		p.mu.Unlock()
		return models.Booking{}, domain.ErrPaymentInFlight
	}
	if err := p.ensureAuthenticated(ctx, res.TripID); err != nil {
		p.mu.Unlock()
		return models.Booking{}, err
	}
	if res.Stage == models.StageSeatsChosen {
		res.Stage = models.StageAwaitingPayment
	}
	res.PaymentMethod = string(method)
	res.UpdatedAt = p.deps.now()
	attempt := cloneReservation(*res)
	seats := p.seatsFor(attempt.Selection)
	p.inFlight = true
	p.persist(ctx)
	p.mu.Unlock()

	booking, err := p.settle(context.WithoutCancel(ctx), attempt, seats, method)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	current := p.reservation != nil && p.reservation.IdempotencyKey == attempt.IdempotencyKey && p.reservation.Stage.Live()

	if err != nil {
		metrics.PaymentAttempts.WithLabelValues(metrics.ResultFailure).Inc()
		msg := "Payment failed. Please try again or use another payment method."
		if reason := domain.PaymentFailureReason(err); reason != "" {
			msg = fmt.Sprintf("Payment failed (%s). Please try again or use another payment method.", reason)
		}
		p.notifier.Notify(domain.NotifyError, msg)
		utils.LogEvent(p.sessionID, "payment", "failed", err.Error())
		return models.Booking{}, err
	}

	if current {
		p.reservation.Stage = models.StageCommitted
		p.reservation.BookingID = booking.ID
		p.reservation.UpdatedAt = p.deps.now()
	}
	p.lastBookingID = booking.ID
	p.persist(context.WithoutCancel(ctx))
	p.notifier.Notify(domain.NotifySuccess, fmt.Sprintf("Payment successful. Booking %s is confirmed.", booking.Reference))
	utils.LogEvent(p.sessionID, "payment", "committed", "booking="+booking.ID)
	return booking, nil
}

// settle reconciles with the booking store, charges, and commits. It runs
// without the pipeline lock.
func (p *ReservationPipeline) settle(ctx context.Context, res models.Reservation, seats []models.Seat, method gateway.Method) (models.Booking, error) {
	existing, found, err := p.deps.Bookings.FindByKey(ctx, res.IdempotencyKey)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "booking store unavailable", Err: err}
	}
	if found {
		metrics.PaymentAttempts.WithLabelValues(metrics.ResultReconciled).Inc()
		utils.LogEvent(p.sessionID, "payment", "reconciled", "booking="+existing.ID)
		return existing, nil
	}

	start := time.Now()
	resp, err := p.deps.Gateway.Charge(ctx, gateway.ChargeRequest{
		IdempotencyKey: res.IdempotencyKey,
		Amount:         res.Amount(),
		Currency:       utils.Currency,
		Method:         method,
		Description:    fmt.Sprintf("%s to %s, %d seat(s)", res.Trip.Origin, res.Trip.Destination, len(res.Selection)),
		Metadata:       map[string]string{"trip_id": res.TripID, "session_id": p.sessionID},
	})
	metrics.PaymentDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		utils.Logger().Warn("gateway charge error", zap.String("session_id", p.sessionID), zap.Error(err))
		return models.Booking{}, domain.NormalizePaymentError(err)
	}
	if !resp.Success {
		return models.Booking{}, domain.PaymentFailedError{Reason: utils.Fallback(resp.FailureReason, "payment_failed")}
	}
	metrics.PaymentAttempts.WithLabelValues(metrics.ResultSuccess).Inc()

	booking := models.Booking{
		ID:             uuid.NewString(),
		Reference:      bookingReference(),
		TripID:         res.TripID,
		Trip:           res.Trip,
		Seats:          seats,
		TotalPrice:     res.Amount(),
		Status:         models.BookingPending,
		PaymentMethod:  string(method),
		TransactionID:  resp.TransactionID,
		SessionID:      p.sessionID,
		IdempotencyKey: res.IdempotencyKey,
		CreatedAt:      p.deps.now(),
	}
	if booking.Status.CanTransition(models.BookingConfirmed) {
		booking.Status = models.BookingConfirmed
	}

	stored, err := p.deps.Bookings.Put(ctx, res.IdempotencyKey, booking)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "could not record booking", Err: err}
	}
	if stored.ID != booking.ID {
		metrics.BookingsDeduplicated.Inc()
	} else {
		metrics.BookingsCommitted.Inc()
	}
	return stored, nil
}

// Abandon discards a reservation that has not been committed.
func (p *ReservationPipeline) Abandon(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch()
	if p.reservation == nil || !p.reservation.Stage.Live() {
		return nil
	}
	p.abandonLocked("abandoned by client")
	p.persist(ctx)
	return nil
}

func (p *ReservationPipeline) abandonLocked(why string) {
	p.reservation.Stage = models.StageAbandoned
	utils.LogEvent(p.sessionID, "reservation", "abandon", fmt.Sprintf("trip=%s %s", p.reservation.TripID, why))
	metrics.ReservationsAbandoned.Inc()
	p.reservation = nil
}

// GetBooking only serves the session's last committed booking.
func (p *ReservationPipeline) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	p.mu.Lock()
	last := p.lastBookingID
	p.touch()
	p.mu.Unlock()
	if id == "" || id != last {
		return models.Booking{}, domain.ErrBookingNotFound
	}
	return p.deps.Bookings.Get(ctx, id)
}

// Snapshot is the read model the UI renders.
type Snapshot struct {
	Trip            *models.Trip        `json:"trip,omitempty"`
	SeatMap         *models.SeatMap     `json:"seatMap,omitempty"`
	Selection       []string            `json:"selection"`
	Total           int64               `json:"total"`
	TotalLabel      string              `json:"totalLabel"`
	Reservation     *models.Reservation `json:"reservation,omitempty"`
	GateState       string              `json:"authState"`
	User            *models.Identity    `json:"user,omitempty"`
	PaymentInFlight bool                `json:"paymentInFlight"`
	LastBookingID   string              `json:"lastBookingId,omitempty"`
}

func (p *ReservationPipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		Selection:       []string{},
		GateState:       p.gate.State().String(),
		PaymentInFlight: p.inFlight,
		LastBookingID:   p.lastBookingID,
	}
	if id, ok := p.gate.Identity(); ok {
		s.User = &id
	}
	if p.trip != nil {
		t := *p.trip
		s.Trip = &t
	}
	if p.seats != nil {
		m := p.seats.SeatMap()
		s.SeatMap = &m
		s.Selection = p.seats.IDs()
		if p.trip != nil {
			s.Total = p.seats.Total(p.trip.Price)
		}
	}
	s.TotalLabel = utils.FormatBirr(s.Total)
	if p.reservation != nil {
		r := cloneReservation(*p.reservation)
		s.Reservation = &r
	}
	return s
}

// ensureAuthenticated runs the gate again when this pipeline has not been
// through it since it was built (restored sessions start Unchecked).
func (p *ReservationPipeline) ensureAuthenticated(ctx context.Context, destination string) error {
	if p.gate.Authenticated() {
		return nil
	}
	_, err := p.gate.Enter(ctx, destination)
	return err
}

func (p *ReservationPipeline) seatsFor(ids []string) []models.Seat {
	if p.seats == nil {
		return nil
	}
	m := p.seats.SeatMap()
	out := make([]models.Seat, 0, len(ids))
	for _, id := range ids {
		if seat, ok := m.Seat(id); ok {
			out = append(out, seat)
		}
	}
	models.SortSeats(out)
	return out
}

// persist writes the session state. Failures are logged: the in-memory
// pipeline stays authoritative for this process.
func (p *ReservationPipeline) persist(ctx context.Context) {
	if p.deps.Sessions == nil {
		return
	}
	st := models.SessionState{LastBookingID: p.lastBookingID}
	if p.trip != nil {
		t := *p.trip
		st.Trip = &t
	}
	if p.seats != nil {
		m := p.seats.SeatMap()
		st.SeatMap = &m
		st.Selection = p.seats.IDs()
	}
	if p.reservation != nil {
		r := cloneReservation(*p.reservation)
		st.Reservation = &r
	}
	if err := p.deps.Sessions.Set(ctx, p.sessionID, st); err != nil {
		utils.Logger().Error("persist session state", zap.String("session_id", p.sessionID), zap.Error(err))
	}
}

// restore rebuilds the pipeline from persisted state. A payment that was in
// flight when the state was written is settled by reconciliation on the next
// SubmitPayment.
func (p *ReservationPipeline) restore(st models.SessionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastBookingID = st.LastBookingID
	if st.Trip != nil {
		t := *st.Trip
		p.trip = &t
	}
	if st.SeatMap != nil {
		p.seats = selection.New(*st.SeatMap)
		p.seats.Restore(st.Selection)
	}
	if st.Reservation != nil && (st.Reservation.Stage.Live() || st.Reservation.Stage == models.StageCommitted) {
		r := cloneReservation(*st.Reservation)
		p.reservation = &r
	}
}

func (p *ReservationPipeline) touch() {
	p.lastSeen = p.deps.now()
}

func (p *ReservationPipeline) idle(cutoff time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.inFlight && p.lastSeen.Before(cutoff)
}

// IdempotencyKey derives the commit key from trip, selection and session.
// Selection order does not matter.
func IdempotencyKey(tripID string, selection []string, sessionID string) string {
	ids := slices.Clone(selection)
	slices.Sort(ids)
	sum := sha256.Sum256([]byte(tripID + "|" + strings.Join(ids, ",") + "|" + sessionID))
	return hex.EncodeToString(sum[:])
}

func bookingReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK-" + strings.ToUpper(raw[:8])
}

func cloneReservation(r models.Reservation) models.Reservation {
	r.Selection = slices.Clone(r.Selection)
	r.Trip.Features = slices.Clone(r.Trip.Features)
	return r
}
