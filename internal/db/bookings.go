package db

import (
	"context"
	"fmt"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

const bookingColumns = "id, username, date, start_time, end_time, duration_minutes, created_at"

func (q *Queries) InsertBooking(ctx context.Context, booking models.Booking) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO bookings ("+bookingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		booking.ID,
		booking.Username,
		models.FormatDate(booking.Date),
		booking.StartTime.String(),
		booking.EndTime.String(),
		booking.Duration,
		formatTimestamp(booking.CreatedAt),
	)
	if err != nil {
		return storeError(fmt.Sprintf("insert booking %s", booking.ID), err)
	}
	return nil
}

func (q *Queries) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)
	booking, err := q.scanBooking(row)
	if err != nil {
		return models.Booking{}, storeError(fmt.Sprintf("get booking %s", id), err)
	}
	return booking, nil
}

// ListBookingsByDate returns the bookings on date in insertion order.
func (q *Queries) ListBookingsByDate(ctx context.Context, date time.Time) ([]models.Booking, error) {
	return q.listBookings(ctx, "list bookings by date",
		"SELECT "+bookingColumns+" FROM bookings WHERE date = ? ORDER BY rowid",
		models.FormatDate(date),
	)
}

func (q *Queries) ListBookingsByUser(ctx context.Context, username string) ([]models.Booking, error) {
	return q.listBookings(ctx, "list bookings by user",
		"SELECT "+bookingColumns+" FROM bookings WHERE username = ? ORDER BY rowid",
		username,
	)
}

// ListBookingsBetween returns bookings whose date falls in [from, to], both
// inclusive, compared as calendar dates.
func (q *Queries) ListBookingsBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	return q.listBookings(ctx, "list bookings between dates",
		"SELECT "+bookingColumns+" FROM bookings WHERE date >= ? AND date <= ? ORDER BY rowid",
		models.FormatDate(from),
		models.FormatDate(to),
	)
}

// ListOrphanedBookings returns bookings that their owner's booking list does
// not reference.
func (q *Queries) ListOrphanedBookings(ctx context.Context) ([]models.Booking, error) {
	return q.listBookings(ctx, "list orphaned bookings",
		`SELECT b.id, b.username, b.date, b.start_time, b.end_time, b.duration_minutes, b.created_at
		FROM bookings b
		LEFT JOIN user_booking_refs r ON r.booking_id = b.id AND r.username = b.username
		WHERE r.booking_id IS NULL
		ORDER BY b.rowid`,
	)
}

func (q *Queries) DeleteBookingRow(ctx context.Context, id string) error {
	op := fmt.Sprintf("delete booking %s", id)
	result, err := q.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return storeError(op, err)
	}
	return requireAffected(op, result)
}

func (q *Queries) listBookings(ctx context.Context, op, query string, args ...any) ([]models.Booking, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := q.scanBooking(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (q *Queries) scanBooking(row rowScanner) (models.Booking, error) {
	var (
		booking                   models.Booking
		date, start, end, created string
	)
	if err := row.Scan(&booking.ID, &booking.Username, &date, &start, &end, &booking.Duration, &created); err != nil {
		return models.Booking{}, err
	}

	var err error
	if booking.Date, err = q.parseDate(date); err != nil {
		return models.Booking{}, err
	}
	if booking.StartTime, err = models.ParseTimeOfDay(start); err != nil {
		return models.Booking{}, err
	}
	if booking.EndTime, err = models.ParseTimeOfDay(end); err != nil {
		return models.Booking{}, err
	}
	if booking.CreatedAt, err = q.parseTimestamp(created); err != nil {
		return models.Booking{}, err
	}
	return booking, nil
}

// CreateBooking inserts the booking, appends it to its owner's booking list and
// bumps the owner's counter in one transaction.
func (db *DB) CreateBooking(ctx context.Context, booking models.Booking) (string, error) {
	err := db.RunInTx(ctx, func(txdb *DB) error {
		if err := txdb.InsertBooking(ctx, booking); err != nil {
			return err
		}
		return txdb.AddUserBookingRef(ctx, booking.Username, booking.ID)
	})
	if err != nil {
		return "", err
	}
	return booking.ID, nil
}

// LinkBookingToUser runs AddUserBookingRef in its own transaction.
func (db *DB) LinkBookingToUser(ctx context.Context, username, bookingID string) error {
	return db.RunInTx(ctx, func(txdb *DB) error {
		return txdb.AddUserBookingRef(ctx, username, bookingID)
	})
}

// DeleteBooking removes the booking; its reference in the owner's list goes with
// it. The owner's total booking counter is left as is.
func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	return db.RunInTx(ctx, func(txdb *DB) error {
		if _, err := txdb.GetBooking(ctx, id); err != nil {
			return err
		}
		return txdb.DeleteBookingRow(ctx, id)
	})
}
