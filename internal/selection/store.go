// Package selection holds the seats a user has picked for one trip.
package selection

import (
	"fmt"
	"sync"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

// Store is scoped to one seat map. Every mutation keeps the selection a
// subset of the map's unoccupied seats.
type Store struct {
	mu       sync.Mutex
	seatMap  models.SeatMap
	selected map[string]struct{}
}

func New(seatMap models.SeatMap) *Store {
	return &Store{seatMap: seatMap, selected: map[string]struct{}{}}
}

// Select toggles seatID and reports whether it is selected afterwards.
// Occupied and unknown seats fail with ErrSeatUnavailable and change nothing.
func (s *Store) Select(seatID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.selected[seatID]; ok {
		delete(s.selected, seatID)
		return false, nil
	}
	seat, ok := s.seatMap.Seat(seatID)
	if !ok || seat.Occupied {
		return false, fmt.Errorf("%w: %s", domain.ErrSeatUnavailable, seatID)
	}
	s.selected[seatID] = struct{}{}
	return true, nil
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.selected = map[string]struct{}{}
	s.mu.Unlock()
}

// Reset switches the store to another seat map and empties it.
func (s *Store) Reset(seatMap models.SeatMap) {
	s.mu.Lock()
	s.seatMap = seatMap
	s.selected = map[string]struct{}{}
	s.mu.Unlock()
}

// Restore re-applies persisted ids, dropping any that are no longer valid.
func (s *Store) Restore(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if seat, ok := s.seatMap.Seat(id); ok && !seat.Occupied {
			s.selected[id] = struct{}{}
		}
	}
}

// Total is pricePerSeat times the number of selected seats.
func (s *Store) Total(pricePerSeat int64) int64 {
	return pricePerSeat * int64(s.Len())
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

func (s *Store) Contains(seatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[seatID]
	return ok
}

// Seats returns the selected seats ordered by seat number.
func (s *Store) Seats() []models.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Seat, 0, len(s.selected))
	for _, seat := range s.seatMap.Seats {
		if _, ok := s.selected[seat.ID]; ok {
			out = append(out, seat)
		}
	}
	return out
}

// IDs returns the selected seat ids ordered by seat number.
func (s *Store) IDs() []string {
	seats := s.Seats()
	out := make([]string, len(seats))
	for i, seat := range seats {
		out[i] = seat.ID
	}
	return out
}

func (s *Store) SeatMap() models.SeatMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatMap
}
