package selection

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/seatmap"
)

func fixedMap(occupied ...int) models.SeatMap {
	occ := map[int]bool{}
	for _, n := range occupied {
		occ[n] = true
	}
	return seatmap.Layout("T1", models.LayoutStandard, 10, occ)
}

func TestSelectToggles(t *testing.T) {
	s := New(fixedMap())
	on, err := s.Select("seat-1")
	if err != nil || !on {
		t.Fatalf("first select: on=%v err=%v", on, err)
	}
	on, err = s.Select("seat-1")
	if err != nil || on {
		t.Fatalf("second select should deselect: on=%v err=%v", on, err)
	}
	if s.Len() != 0 {
		t.Fatalf("selection should be empty, got %d", s.Len())
	}
}

func TestSelectOccupiedSeatFails(t *testing.T) {
	s := New(fixedMap(2))
	if _, err := s.Select("seat-3"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Select("seat-2"); !errors.Is(err, domain.ErrSeatUnavailable) {
		t.Fatalf("expected ErrSeatUnavailable, got %v", err)
	}
	if _, err := s.Select("seat-404"); !errors.Is(err, domain.ErrSeatUnavailable) {
		t.Fatalf("unknown seat: expected ErrSeatUnavailable, got %v", err)
	}
	if got := s.IDs(); len(got) != 1 || got[0] != "seat-3" {
		t.Fatalf("state changed after failed select: %v", got)
	}
}

func TestTotal(t *testing.T) {
	s := New(fixedMap())
	_, _ = s.Select("seat-4")
	_, _ = s.Select("seat-5")
	if got := s.Total(800); got != 1600 {
		t.Fatalf("total = %d, want 1600", got)
	}
	s.Clear()
	if got := s.Total(800); got != 0 {
		t.Fatalf("total after clear = %d", got)
	}
}

func TestToggleSequencesKeepOddCounts(t *testing.T) {
	m := fixedMap(1, 7)
	rng := rand.New(rand.NewPCG(11, 13))
	for round := 0; round < 50; round++ {
		s := New(m)
		counts := map[string]int{}
		for i := 0; i < 40; i++ {
			id := seatmap.SeatID(rng.IntN(12) + 1)
			if _, err := s.Select(id); err == nil {
				counts[id]++
			}
		}
		for _, seat := range m.Seats {
			want := counts[seat.ID]%2 == 1
			if s.Contains(seat.ID) != want {
				t.Fatalf("round %d seat %s: contains=%v, toggled %d times", round, seat.ID, s.Contains(seat.ID), counts[seat.ID])
			}
			if seat.Occupied && s.Contains(seat.ID) {
				t.Fatalf("occupied seat %s selected", seat.ID)
			}
		}
	}
}

func TestConcurrentTogglesNetOut(t *testing.T) {
	s := New(fixedMap())
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Select("seat-6")
		}()
	}
	wg.Wait()
	if s.Contains("seat-6") {
		t.Fatalf("an even number of toggles must leave the seat unselected")
	}
}

func TestRestoreDropsInvalidIDs(t *testing.T) {
	s := New(fixedMap(2))
	s.Restore([]string{"seat-1", "seat-2", "seat-99"})
	if got := s.IDs(); len(got) != 1 || got[0] != "seat-1" {
		t.Fatalf("restore kept %v", got)
	}
}

func TestResetSwitchesMap(t *testing.T) {
	s := New(fixedMap())
	_, _ = s.Select("seat-1")
	s.Reset(fixedMap(1))
	if s.Len() != 0 {
		t.Fatalf("reset must clear the selection")
	}
	if _, err := s.Select("seat-1"); !errors.Is(err, domain.ErrSeatUnavailable) {
		t.Fatalf("new map not applied: %v", err)
	}
}
