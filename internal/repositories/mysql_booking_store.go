package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	intconfig "busbooking/internal/config"
	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// MySQLBookingStore keeps bookings in the bookings/booking_seats tables. The
// unique index on idempotency_key makes concurrent commits of the same
// reservation collapse into one row.
type MySQLBookingStore struct {
	DB *sql.DB
}

func (r MySQLBookingStore) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingColumns = `id, reference, idempotency_key, session_id, trip_id, trip_json, seats_json,
	total_price, status, payment_method, COALESCE(transaction_id, ''), created_at`

func (r MySQLBookingStore) Put(ctx context.Context, key string, b models.Booking) (models.Booking, error) {
	if key == "" {
		return models.Booking{}, domain.ValidationError{Field: "idempotency_key", Msg: "required"}
	}
	tripJSON, err := json.Marshal(b.Trip)
	if err != nil {
		return models.Booking{}, err
	}
	seatsJSON, err := json.Marshal(b.Seats)
	if err != nil {
		return models.Booking{}, err
	}

	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, reference, idempotency_key, session_id, trip_id, trip_json, seats_json,
			total_price, status, payment_method, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Reference, key, b.SessionID, b.TripID, string(tripJSON), string(seatsJSON),
		b.TotalPrice, string(b.Status), b.PaymentMethod, intdb.NullIfEmpty(b.TransactionID), b.CreatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			_ = tx.Rollback()
			existing, ok, ferr := r.FindByKey(ctx, key)
			if ferr != nil {
				return models.Booking{}, ferr
			}
			if ok {
				utils.LogEvent("", "bookings", "put_duplicate", "idempotency key already committed, returning "+existing.ID)
				return existing, nil
			}
		}
		return models.Booking{}, fmt.Errorf("insert booking: %w", err)
	}

	for _, n := range b.SeatNumbers() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO booking_seats (booking_id, trip_id, seat_number) VALUES (?, ?, ?)`,
			b.ID, b.TripID, n,
		); err != nil {
			return models.Booking{}, fmt.Errorf("insert booking seat %d: %w", n, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Booking{}, err
	}
	b.IdempotencyKey = key
	return b, nil
}

func (r MySQLBookingStore) Get(ctx context.Context, id string) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.ErrBookingNotFound
	}
	return b, err
}

func (r MySQLBookingStore) FindByKey(ctx context.Context, key string) (models.Booking, bool, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key = ? LIMIT 1`, key)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, false, nil
	}
	if err != nil {
		return models.Booking{}, false, err
	}
	return b, true, nil
}

func (r MySQLBookingStore) BookedSeatNumbers(ctx context.Context, tripID string) ([]int, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT bs.seat_number
		FROM booking_seats bs
		JOIN bookings b ON b.id = bs.booking_id
		WHERE bs.trip_id = ? AND b.status <> ?`, tripID, string(models.BookingCancelled))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, rows.Err()
}

func (r MySQLBookingStore) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	var current string
	err := r.db().QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ? LIMIT 1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	if !models.BookingStatus(current).CanTransition(status) {
		return domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("cannot move from %s to %s", current, status)}
	}
	_, err = r.db().ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`, string(status), id, current)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b                   models.Booking
		status              string
		tripJSON, seatsJSON []byte
	)
	if err := row.Scan(&b.ID, &b.Reference, &b.IdempotencyKey, &b.SessionID, &b.TripID,
		&tripJSON, &seatsJSON, &b.TotalPrice, &status, &b.PaymentMethod, &b.TransactionID, &b.CreatedAt); err != nil {
		return models.Booking{}, err
	}
	b.Status = models.BookingStatus(status)
	if err := json.Unmarshal(tripJSON, &b.Trip); err != nil {
		return models.Booking{}, fmt.Errorf("decode trip of booking %s: %w", b.ID, err)
	}
	if err := json.Unmarshal(seatsJSON, &b.Seats); err != nil {
		return models.Booking{}, fmt.Errorf("decode seats of booking %s: %w", b.ID, err)
	}
	return b, nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
