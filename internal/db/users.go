package db

import (
	"context"
	"fmt"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

func (q *Queries) CreateUser(ctx context.Context, user models.User) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO users (username, total_bookings, created_at) VALUES (?, ?, ?)",
		user.Username,
		user.TotalBookings,
		formatTimestamp(user.CreatedAt),
	)
	if err != nil {
		return storeError(fmt.Sprintf("create user %s", user.Username), err)
	}
	return nil
}

// GetUser returns the user with their booking and tournament references in the
// order they were added.
func (q *Queries) GetUser(ctx context.Context, username string) (models.User, error) {
	op := fmt.Sprintf("get user %s", username)

	var (
		user      models.User
		createdAt string
	)
	err := q.db.QueryRowContext(ctx,
		"SELECT username, total_bookings, created_at FROM users WHERE username = ?",
		username,
	).Scan(&user.Username, &user.TotalBookings, &createdAt)
	if err != nil {
		return models.User{}, storeError(op, err)
	}
	if user.CreatedAt, err = q.parseTimestamp(createdAt); err != nil {
		return models.User{}, err
	}

	if user.Bookings, err = q.listRefs(ctx, op,
		"SELECT booking_id FROM user_booking_refs WHERE username = ? ORDER BY rowid", username); err != nil {
		return models.User{}, err
	}
	if user.Tournaments, err = q.listRefs(ctx, op,
		"SELECT tournament_id FROM user_tournament_refs WHERE username = ? ORDER BY rowid", username); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (q *Queries) listRefs(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	refs := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, storeError(op, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	return refs, nil
}

// AddUserBookingRef appends bookingID to the user's list and bumps their
// total booking counter. Callers wanting both writes atomic run it in a transaction.
func (q *Queries) AddUserBookingRef(ctx context.Context, username, bookingID string) error {
	op := fmt.Sprintf("link booking %s to user %s", bookingID, username)

	result, err := q.db.ExecContext(ctx,
		"UPDATE users SET total_bookings = total_bookings + 1 WHERE username = ?",
		username,
	)
	if err != nil {
		return storeError(op, err)
	}
	if err := requireAffected(op, result); err != nil {
		return err
	}

	if _, err := q.db.ExecContext(ctx,
		"INSERT INTO user_booking_refs (username, booking_id) VALUES (?, ?)",
		username,
		bookingID,
	); err != nil {
		return storeError(op, err)
	}
	return nil
}

// AddUserTournamentRef appends tournamentID to the user's list. Adding the same
// reference twice is a no-op.
func (q *Queries) AddUserTournamentRef(ctx context.Context, username, tournamentID string) error {
	op := fmt.Sprintf("link tournament %s to user %s", tournamentID, username)

	var exists int
	if err := q.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE username = ?", username).Scan(&exists); err != nil {
		return storeError(op, err)
	}

	if _, err := q.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_tournament_refs (username, tournament_id) VALUES (?, ?)",
		username,
		tournamentID,
	); err != nil {
		return storeError(op, err)
	}
	return nil
}
