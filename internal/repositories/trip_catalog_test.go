package repositories

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := LoadStaticCatalog("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	trip, err := c.GetTrip(context.Background(), "5")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if trip.Layout() != models.LayoutLuxury || trip.Price != 900 {
		t.Fatalf("unexpected trip %+v", trip)
	}
	if _, err := c.GetTrip(context.Background(), "99"); !errors.Is(err, domain.ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
	list, _ := c.ListTrips(context.Background())
	if len(list) != 5 || list[0].ID != "1" {
		t.Fatalf("unexpected list order %v", list)
	}
}

func TestLoadStaticCatalogFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.yaml")
	seed := `trips:
  - id: T1
    origin: Addis Ababa
    destination: Adama
    date: "2024-01-02"
    departure_time: "07:00"
    arrival_time: "09:00"
    operator: Test Bus
    price: 800
    total_seats: 10
    available_seats: 8
    bus_type: standard
    features: [WiFi]
`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	c, err := LoadStaticCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	trip, err := c.GetTrip(context.Background(), "T1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if trip.TotalSeats != 10 || trip.AvailableSeats != 8 || trip.DepartureTime != "07:00" || len(trip.Features) != 1 {
		t.Fatalf("decoded trip mismatch: %+v", trip)
	}
}

func TestStaticCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewStaticCatalog([]models.Trip{{ID: "a"}, {ID: "a"}})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMySQLTripCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "origin", "destination", "trip_date", "departure_time", "arrival_time",
		"operator", "price", "total_seats", "available_seats", "bus_type", "features"}
	mock.ExpectQuery("FROM trips WHERE id").WithArgs("T1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("T1", "Addis Ababa", "Adama", "2024-01-02", "07:00", "09:00",
			"Test Bus", 800, 10, 8, "VIP", "WiFi, Toilet"))
	mock.ExpectQuery("FROM trips WHERE id").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(cols))

	cat := MySQLTripCatalog{DB: db}
	trip, err := cat.GetTrip(context.Background(), "T1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if trip.Layout() != models.LayoutLuxury || len(trip.Features) != 2 || trip.Features[1] != "Toilet" {
		t.Fatalf("decoded trip mismatch: %+v", trip)
	}
	if _, err := cat.GetTrip(context.Background(), "nope"); !errors.Is(err, domain.ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
