// Package seatmap derives a bus seat inventory from trip capacity data.
package seatmap

import (
	"context"
	"fmt"
	"math/rand/v2"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

// class band thresholds, in rows: rows <= vip are vip, rows <= premium are premium.
type banding struct {
	vip     int
	premium int
}

var bands = map[models.Layout]banding{
	models.LayoutStandard: {vip: 2, premium: 6},
	models.LayoutLuxury:   {vip: 3, premium: 8},
}

var positions = map[models.Layout][]models.SeatPosition{
	models.LayoutStandard: {models.WindowLeft, models.AisleLeft, models.AisleRight, models.WindowRight},
	models.LayoutLuxury:   {models.WindowLeft, models.AisleLeft, models.SingleRight},
}

// Generator builds seat maps. A Generator with the same seed and source
// yields the same map for the same trip.
type Generator struct {
	Seed      uint64
	Occupancy OccupancySource
}

// NewGenerator returns a generator using the random occupancy draw.
func NewGenerator(seed uint64) *Generator {
	return &Generator{Seed: seed, Occupancy: RandomOccupancy{}}
}

// Generate is GenerateContext without a context.
func (g *Generator) Generate(trip models.Trip) (models.SeatMap, error) {
	return g.GenerateContext(context.Background(), trip)
}

// GenerateContext lays out trip.TotalSeats seats row-major and marks
// TotalSeats-AvailableSeats of them occupied.
func (g *Generator) GenerateContext(ctx context.Context, trip models.Trip) (models.SeatMap, error) {
	if err := ValidateCapacity(trip); err != nil {
		return models.SeatMap{}, err
	}
	layout := trip.Layout()
	src := g.Occupancy
	if src == nil {
		src = RandomOccupancy{}
	}

	want := trip.TotalSeats - trip.AvailableSeats
	occupied, err := src.Occupied(ctx, trip, want, g.rng(trip))
	if err != nil {
		return models.SeatMap{}, err
	}
	if len(occupied) != want {
		return models.SeatMap{}, fmt.Errorf("%w: occupancy source returned %d seats, want %d", domain.ErrInvalidTripCapacity, len(occupied), want)
	}

	return Layout(trip.ID, layout, trip.TotalSeats, occupied), nil
}

// Layout numbers seats 1..total in row-major order and assigns class and
// position. occupied holds seat numbers.
func Layout(tripID string, layout models.Layout, total int, occupied map[int]bool) models.SeatMap {
	per := layout.SeatsPerRow()
	pos := positions[layout]
	band := bands[layout]

	seats := make([]models.Seat, 0, total)
	for n := 1; n <= total; n++ {
		row := (n-1)/per + 1
		seats = append(seats, models.Seat{
			ID:       SeatID(n),
			Number:   n,
			Row:      row,
			Class:    classFor(row, band),
			Occupied: occupied[n],
			Position: pos[(n-1)%per],
		})
	}
	return models.SeatMap{
		TripID:      tripID,
		Layout:      layout,
		SeatsPerRow: per,
		Seats:       seats,
	}
}

// ValidateCapacity rejects catalog data that cannot describe a real bus.
func ValidateCapacity(trip models.Trip) error {
	if trip.TotalSeats < 0 || trip.AvailableSeats < 0 || trip.AvailableSeats > trip.TotalSeats {
		return fmt.Errorf("%w: trip %s has %d available of %d total", domain.ErrInvalidTripCapacity, trip.ID, trip.AvailableSeats, trip.TotalSeats)
	}
	return nil
}

// SeatID is the stable id of seat number n within a trip.
func SeatID(n int) string {
	return fmt.Sprintf("seat-%d", n)
}

func classFor(row int, b banding) models.SeatClass {
	switch {
	case row <= b.vip:
		return models.SeatVIP
	case row <= b.premium:
		return models.SeatPremium
	default:
		return models.SeatStandard
	}
}

// rng is seeded from the generator seed and the trip id so two trips in the
// same process do not share an occupancy pattern.
func (g *Generator) rng(trip models.Trip) *rand.Rand {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(trip.ID); i++ {
		h ^= uint64(trip.ID[i])
		h *= 1099511628211
	}
	return rand.New(rand.NewPCG(g.Seed, h))
}
