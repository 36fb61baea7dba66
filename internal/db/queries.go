package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

// timestampLayout is fixed-width UTC so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs single statements against a connection or transaction.
// Calendar dates and timestamps are returned in loc.
type Queries struct {
	db  DBTX
	loc *time.Location
}

func NewQueries(db DBTX, loc *time.Location) *Queries {
	if loc == nil {
		loc = time.Local
	}
	return &Queries{db: db, loc: loc}
}

func (q *Queries) Location() *time.Location {
	return q.loc
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func (q *Queries) parseTimestamp(raw string) (time.Time, error) {
	parsed, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return parsed.In(q.loc), nil
}

func (q *Queries) parseDate(raw string) (time.Time, error) {
	parsed, err := time.ParseInLocation(models.DateLayout, raw, q.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return parsed, nil
}

// storeError maps driver errors onto the domain sentinels. Anything that is not
// a missing row or a constraint violation is reported as ErrStoreUnavailable.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: referenced record missing: %w", op, models.ErrNotFound)
		default:
			return fmt.Errorf("%s: %w: %v", op, models.ErrInputInvalid, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
}

func requireAffected(op string, result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return storeError(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
