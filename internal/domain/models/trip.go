package models

import "strings"

// Layout is the seating arrangement of a bus.
type Layout string

const (
	// LayoutStandard is a 2+2 arrangement.
	LayoutStandard Layout = "standard"
	// LayoutLuxury is a 2+1 arrangement.
	LayoutLuxury Layout = "luxury"
)

// SeatsPerRow returns how many seats one row of the layout holds.
func (l Layout) SeatsPerRow() int {
	if l == LayoutLuxury {
		return 3
	}
	return 4
}

// Trip is an immutable snapshot taken from the trip catalog.
type Trip struct {
	ID             string   `json:"id" mapstructure:"id"`
	Origin         string   `json:"origin" mapstructure:"origin"`
	Destination    string   `json:"destination" mapstructure:"destination"`
	Date           string   `json:"date" mapstructure:"date"`
	DepartureTime  string   `json:"departureTime" mapstructure:"departure_time"`
	ArrivalTime    string   `json:"arrivalTime" mapstructure:"arrival_time"`
	Operator       string   `json:"operator" mapstructure:"operator"`
	Price          int64    `json:"price" mapstructure:"price"`
	TotalSeats     int      `json:"totalSeats" mapstructure:"total_seats"`
	AvailableSeats int      `json:"availableSeats" mapstructure:"available_seats"`
	Features       []string `json:"features" mapstructure:"features"`
	BusType        string   `json:"busType" mapstructure:"bus_type"`
}

// Layout derives the seating arrangement from the bus type.
func (t Trip) Layout() Layout {
	switch strings.ToLower(strings.TrimSpace(t.BusType)) {
	case "luxury", "vip":
		return LayoutLuxury
	default:
		return LayoutStandard
	}
}
