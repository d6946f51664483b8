package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"busbooking/internal/utils"

	"go.uber.org/zap"
)

type QueryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NullIfEmpty helps store optional strings without wiping existing data.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func HasTable(q QueryRower, table string) bool {
	if q == nil {
		return false
	}
	var name sql.NullString
	err := q.QueryRow(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		if errors.Is(err, driver.ErrBadConn) {
			utils.Logger().Warn("has table: bad connection", zap.String("table", table))
		}
		return false
	}
	return name.Valid && name.String != ""
}

func HasColumn(q QueryRower, table, column string) bool {
	if q == nil {
		return false
	}
	var name sql.NullString
	err := q.QueryRow(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND column_name = ?
		LIMIT 1
	`, table, column).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// Table is a CREATE TABLE statement keyed by the table it creates.
type Table struct {
	Name string
	DDL  string
}

// Schema of the service, in creation order.
var Schema = []Table{
	{Name: "trips", DDL: `
		CREATE TABLE IF NOT EXISTS trips (
			id VARCHAR(64) PRIMARY KEY,
			origin VARCHAR(120) NOT NULL,
			destination VARCHAR(120) NOT NULL,
			trip_date DATE NOT NULL,
			departure_time VARCHAR(8) NOT NULL,
			arrival_time VARCHAR(8) NOT NULL,
			operator VARCHAR(120) NOT NULL,
			price BIGINT NOT NULL,
			total_seats INT NOT NULL,
			available_seats INT NOT NULL,
			bus_type VARCHAR(32) NOT NULL DEFAULT 'standard',
			features TEXT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{Name: "bookings", DDL: `
		CREATE TABLE IF NOT EXISTS bookings (
			id VARCHAR(64) PRIMARY KEY,
			reference VARCHAR(32) NOT NULL,
			idempotency_key CHAR(64) NOT NULL,
			session_id VARCHAR(64) NOT NULL,
			trip_id VARCHAR(64) NOT NULL,
			trip_json JSON NOT NULL,
			seats_json JSON NOT NULL,
			total_price BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL,
			payment_method VARCHAR(32) NOT NULL,
			transaction_id VARCHAR(64) NULL,
			created_at DATETIME NOT NULL,
			UNIQUE KEY uq_bookings_idempotency (idempotency_key),
			KEY idx_bookings_trip (trip_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{Name: "booking_seats", DDL: `
		CREATE TABLE IF NOT EXISTS booking_seats (
			booking_id VARCHAR(64) NOT NULL,
			trip_id VARCHAR(64) NOT NULL,
			seat_number INT NOT NULL,
			PRIMARY KEY (booking_id, seat_number),
			KEY idx_booking_seats_trip (trip_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{Name: "users", DDL: `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			email VARCHAR(190) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'customer',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// EnsureSchema creates the named tables that do not exist yet. With no
// names it ensures the whole Schema.
func EnsureSchema(ctx context.Context, conn interface {
	QueryRower
	Execer
}, names ...string) error {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	for _, t := range Schema {
		if len(want) > 0 && !want[t.Name] {
			continue
		}
		if HasTable(conn, t.Name) {
			continue
		}
		if _, err := conn.ExecContext(ctx, t.DDL); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
		utils.LogEvent("", "db", "create_table", t.Name)
	}
	return nil
}
