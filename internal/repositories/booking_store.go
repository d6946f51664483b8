package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

// BookingStore is the durable record of committed bookings, keyed by the
// reservation's idempotency key.
type BookingStore interface {
	// Put writes booking under key. When key is already known the existing
	// booking is returned and nothing is written.
	Put(ctx context.Context, key string, booking models.Booking) (models.Booking, error)
	Get(ctx context.Context, id string) (models.Booking, error)
	FindByKey(ctx context.Context, key string) (models.Booking, bool, error)
	BookedSeatNumbers(ctx context.Context, tripID string) ([]int, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type MemoryBookingStore struct {
	mu    sync.RWMutex
	byID  map[string]models.Booking
	byKey map[string]string
}

func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{
		byID:  map[string]models.Booking{},
		byKey: map[string]string{},
	}
}

func (s *MemoryBookingStore) Put(_ context.Context, key string, b models.Booking) (models.Booking, error) {
	if key == "" {
		return models.Booking{}, domain.ValidationError{Field: "idempotency_key", Msg: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		return s.byID[id], nil
	}
	if _, ok := s.byID[b.ID]; ok {
		return models.Booking{}, domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("id %s already used", b.ID)}
	}
	b.IdempotencyKey = key
	s.byID[b.ID] = b
	s.byKey[key] = b.ID
	return b, nil
}

func (s *MemoryBookingStore) Get(_ context.Context, id string) (models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return models.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

func (s *MemoryBookingStore) FindByKey(_ context.Context, key string) (models.Booking, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return models.Booking{}, false, nil
	}
	return s.byID[id], true, nil
}

func (s *MemoryBookingStore) BookedSeatNumbers(_ context.Context, tripID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int
	for _, b := range s.byID {
		if b.TripID != tripID || b.Status == models.BookingCancelled {
			continue
		}
		out = append(out, b.SeatNumbers()...)
	}
	sort.Ints(out)
	return out, nil
}

func (s *MemoryBookingStore) UpdateStatus(_ context.Context, id string, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if !b.Status.CanTransition(status) {
		return domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("cannot move from %s to %s", b.Status, status)}
	}
	b.Status = status
	s.byID[id] = b
	return nil
}
