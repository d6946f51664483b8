package seatmap

import (
	"context"
	"math/rand/v2"

	"busbooking/internal/domain/models"
)

// OccupancySource decides which seat numbers are already taken.
// Implementations must return exactly want distinct numbers in 1..TotalSeats.
type OccupancySource interface {
	Occupied(ctx context.Context, trip models.Trip, want int, rng *rand.Rand) (map[int]bool, error)
}

// RandomOccupancy is a placeholder for a live inventory feed: it draws the
// occupied seats uniformly without replacement.
type RandomOccupancy struct{}

func (RandomOccupancy) Occupied(_ context.Context, trip models.Trip, want int, rng *rand.Rand) (map[int]bool, error) {
	return draw(trip.TotalSeats, want, nil, rng), nil
}

// BookedSeatLister reports seat numbers already committed for a trip.
type BookedSeatLister interface {
	BookedSeatNumbers(ctx context.Context, tripID string) ([]int, error)
}

// InventoryOccupancy marks seats this platform has already sold first and
// fills the rest of the occupied count with the random draw.
type InventoryOccupancy struct {
	Bookings BookedSeatLister
}

func (s InventoryOccupancy) Occupied(ctx context.Context, trip models.Trip, want int, rng *rand.Rand) (map[int]bool, error) {
	if s.Bookings == nil {
		return draw(trip.TotalSeats, want, nil, rng), nil
	}
	booked, err := s.Bookings.BookedSeatNumbers(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	return draw(trip.TotalSeats, want, booked, rng), nil
}

// draw picks want numbers from 1..total, taking the valid entries of
// preset first (up to want) and a partial Fisher-Yates over the rest.
func draw(total, want int, preset []int, rng *rand.Rand) map[int]bool {
	out := make(map[int]bool, want)
	for _, n := range preset {
		if len(out) == want {
			return out
		}
		if n >= 1 && n <= total {
			out[n] = true
		}
	}

	pool := make([]int, 0, total-len(out))
	for n := 1; n <= total; n++ {
		if !out[n] {
			pool = append(pool, n)
		}
	}
	for i := 0; len(out) < want && i < len(pool); i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		out[pool[i]] = true
	}
	return out
}
