package models

import "sort"

// SeatClass is the fare band of a seat.
type SeatClass string

const (
	SeatStandard SeatClass = "standard"
	SeatPremium  SeatClass = "premium"
	SeatVIP      SeatClass = "vip"
)

// SeatPosition is used for rendering only.
type SeatPosition string

const (
	WindowLeft  SeatPosition = "window-left"
	AisleLeft   SeatPosition = "aisle-left"
	AisleRight  SeatPosition = "aisle-right"
	WindowRight SeatPosition = "window-right"
	SingleRight SeatPosition = "single-right"
)

type Seat struct {
	ID       string       `json:"id"`
	Number   int          `json:"number"`
	Row      int          `json:"row"`
	Class    SeatClass    `json:"type"`
	Occupied bool         `json:"isBooked"`
	Position SeatPosition `json:"position"`
}

// SeatMap is the ordered seat inventory of one trip.
type SeatMap struct {
	TripID      string `json:"tripId"`
	Layout      Layout `json:"layout"`
	SeatsPerRow int    `json:"seatsPerRow"`
	Seats       []Seat `json:"seats"`
}

// Seat looks a seat up by id.
func (m SeatMap) Seat(id string) (Seat, bool) {
	for _, s := range m.Seats {
		if s.ID == id {
			return s, true
		}
	}
	return Seat{}, false
}

func (m SeatMap) OccupiedCount() int {
	n := 0
	for _, s := range m.Seats {
		if s.Occupied {
			n++
		}
	}
	return n
}

// AvailableIDs lists unoccupied seat ids in seat-number order.
func (m SeatMap) AvailableIDs() []string {
	out := make([]string, 0, len(m.Seats))
	for _, s := range m.Seats {
		if !s.Occupied {
			out = append(out, s.ID)
		}
	}
	return out
}

// Rows groups seats by bus row for rendering.
func (m SeatMap) Rows() [][]Seat {
	per := m.SeatsPerRow
	if per <= 0 {
		per = m.Layout.SeatsPerRow()
	}
	rows := make([][]Seat, 0, (len(m.Seats)+per-1)/per)
	for i := 0; i < len(m.Seats); i += per {
		end := min(i+per, len(m.Seats))
		rows = append(rows, m.Seats[i:end])
	}
	return rows
}

// SortSeats orders seats by number in place.
func SortSeats(seats []Seat) {
	sort.Slice(seats, func(i, j int) bool { return seats[i].Number < seats[j].Number })
}
