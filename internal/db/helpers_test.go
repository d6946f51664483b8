package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestHasTableAndColumn(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery("information_schema\\.tables").WithArgs("bookings").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("bookings"))
	mock.ExpectQuery("information_schema\\.columns").WithArgs("bookings", "reference").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	if !HasTable(conn, "bookings") {
		t.Fatalf("expected bookings table")
	}
	if HasColumn(conn, "bookings", "reference") {
		t.Fatalf("expected missing column")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchemaCreatesMissingTablesOnly(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery("information_schema\\.tables").WithArgs("bookings").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("bookings"))
	mock.ExpectQuery("information_schema\\.tables").WithArgs("booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS booking_seats").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := EnsureSchema(context.Background(), conn, "bookings", "booking_seats"); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchemaReportsCreateFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery("information_schema\\.tables").WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnError(errors.New("denied"))

	if err := EnsureSchema(context.Background(), conn, "users"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNullIfEmpty(t *testing.T) {
	if NullIfEmpty("") != nil {
		t.Fatalf("empty should be nil")
	}
	if NullIfEmpty("x") != "x" {
		t.Fatalf("value should pass through")
	}
}
