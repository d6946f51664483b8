package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	intconfig "busbooking/internal/config"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/spf13/viper"
)

// TripCatalog is the read-only source of trip snapshots.
type TripCatalog interface {
	GetTrip(ctx context.Context, id string) (models.Trip, error)
	ListTrips(ctx context.Context) ([]models.Trip, error)
}

type StaticCatalog struct {
	trips map[string]models.Trip
}

func NewStaticCatalog(trips []models.Trip) (*StaticCatalog, error) {
	c := &StaticCatalog{trips: make(map[string]models.Trip, len(trips))}
	for _, t := range trips {
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, domain.ValidationError{Field: "trip.id", Msg: "required"}
		}
		if _, dup := c.trips[t.ID]; dup {
			return nil, domain.ConflictError{Resource: "trip", Msg: "duplicate id " + t.ID}
		}
		c.trips[t.ID] = t
	}
	return c, nil
}

// LoadStaticCatalog reads the trips list from a YAML/JSON/TOML seed file.
// An empty path yields DefaultTrips.
func LoadStaticCatalog(path string) (*StaticCatalog, error) {
	if strings.TrimSpace(path) == "" {
		return NewStaticCatalog(DefaultTrips())
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read trip seed %s: %w", path, err)
	}
	var trips []models.Trip
	if err := v.UnmarshalKey("trips", &trips); err != nil {
		return nil, fmt.Errorf("decode trip seed %s: %w", path, err)
	}
	return NewStaticCatalog(trips)
}

func (c *StaticCatalog) GetTrip(_ context.Context, id string) (models.Trip, error) {
	t, ok := c.trips[id]
	if !ok {
		return models.Trip{}, fmt.Errorf("%w: %s", domain.ErrTripNotFound, id)
	}
	t.Features = append([]string(nil), t.Features...)
	return t, nil
}

func (c *StaticCatalog) ListTrips(context.Context) ([]models.Trip, error) {
	out := make([]models.Trip, 0, len(c.trips))
	for _, t := range c.trips {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].DepartureTime != out[j].DepartureTime {
			return out[i].DepartureTime < out[j].DepartureTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DefaultTrips is the demo timetable served when no seed file is configured.
func DefaultTrips() []models.Trip {
	return []models.Trip{
		{ID: "1", Origin: "Addis Ababa", Destination: "Bahir Dar", Date: "2023-07-15", DepartureTime: "06:00", ArrivalTime: "14:00",
			Operator: "Selam Bus", Price: 800, AvailableSeats: 25, TotalSeats: 45, BusType: "Luxury",
			Features: []string{"Air Conditioning", "WiFi", "Power Outlets", "Reclining Seats"}},
		{ID: "2", Origin: "Addis Ababa", Destination: "Hawassa", Date: "2023-07-15", DepartureTime: "08:30", ArrivalTime: "15:30",
			Operator: "Sky Bus", Price: 750, AvailableSeats: 15, TotalSeats: 49, BusType: "Standard",
			Features: []string{"Air Conditioning", "WiFi", "Entertainment"}},
		{ID: "3", Origin: "Addis Ababa", Destination: "Gondar", Date: "2023-07-15", DepartureTime: "12:00", ArrivalTime: "20:00",
			Operator: "Golden Bus", Price: 700, AvailableSeats: 5, TotalSeats: 45, BusType: "Standard",
			Features: []string{"Air Conditioning", "Toilet"}},
		{ID: "4", Origin: "Addis Ababa", Destination: "Dire Dawa", Date: "2023-07-15", DepartureTime: "16:00", ArrivalTime: "00:00",
			Operator: "Abay Bus", Price: 650, AvailableSeats: 0, TotalSeats: 49, BusType: "Economy",
			Features: []string{"Air Conditioning"}},
		{ID: "5", Origin: "Addis Ababa", Destination: "Mekelle", Date: "2023-07-15", DepartureTime: "20:00", ArrivalTime: "04:00",
			Operator: "Habesha Bus", Price: 900, AvailableSeats: 30, TotalSeats: 45, BusType: "VIP",
			Features: []string{"Air Conditioning", "WiFi", "Power Outlets", "Reclining Seats", "Toilet", "Entertainment"}},
	}
}

// MySQLTripCatalog reads the trips table.
type MySQLTripCatalog struct {
	DB *sql.DB
}

func (r MySQLTripCatalog) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tripColumns = `id, origin, destination, DATE_FORMAT(trip_date, '%Y-%m-%d'), departure_time, arrival_time,
	operator, price, total_seats, available_seats, bus_type, COALESCE(features, '')`

func (r MySQLTripCatalog) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ? LIMIT 1`, id)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, fmt.Errorf("%w: %s", domain.ErrTripNotFound, id)
	}
	return t, err
}

func (r MySQLTripCatalog) ListTrips(ctx context.Context) ([]models.Trip, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY trip_date, departure_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTrip(row rowScanner) (models.Trip, error) {
	var (
		t        models.Trip
		features string
	)
	if err := row.Scan(&t.ID, &t.Origin, &t.Destination, &t.Date, &t.DepartureTime, &t.ArrivalTime,
		&t.Operator, &t.Price, &t.TotalSeats, &t.AvailableSeats, &t.BusType, &features); err != nil {
		return models.Trip{}, err
	}
	t.Features = splitFeatures(features)
	return t, nil
}

func splitFeatures(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
