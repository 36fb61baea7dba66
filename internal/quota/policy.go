// Package quota enforces per-user booking limits.
package quota

import (
	"errors"
	"fmt"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

var (
	ErrDailyLimitExceeded  = fmt.Errorf("daily booking limit exceeded: %w", models.ErrQuotaExceeded)
	ErrWeeklyLimitExceeded = fmt.Errorf("weekly booking limit exceeded: %w", models.ErrQuotaExceeded)
)

const (
	DefaultDailyMinutes   = 120
	DefaultWeeklyBookings = 3
)

// Policy caps how much a single user may book. The daily cap is in minutes and
// includes the candidate; the weekly cap counts existing bookings only.
type Policy struct {
	DailyMinutes   int
	WeeklyBookings int
	WeekStart      time.Weekday
}

// DefaultPolicy allows 2 hours per day and 3 bookings per Sunday-to-Saturday week.
func DefaultPolicy() Policy {
	return Policy{
		DailyMinutes:   DefaultDailyMinutes,
		WeeklyBookings: DefaultWeeklyBookings,
		WeekStart:      time.Sunday,
	}
}

func (p Policy) Validate() error {
	if p.DailyMinutes <= 0 {
		return errors.New("daily limit must be greater than 0")
	}
	if p.WeeklyBookings <= 0 {
		return errors.New("weekly limit must be greater than 0")
	}
	if p.WeekStart < time.Sunday || p.WeekStart > time.Saturday {
		return fmt.Errorf("week start %d is not a weekday", p.WeekStart)
	}
	return nil
}

type Decision struct {
	MinutesOnDate  int
	BookingsInWeek int
	WeekStart      time.Time
	DailyExceeded  bool
	WeeklyExceeded bool
}

func (d Decision) Allowed() bool {
	return !d.DailyExceeded && !d.WeeklyExceeded
}

// Err reports the daily failure ahead of the weekly one.
func (d Decision) Err(p Policy, duration int) error {
	switch {
	case d.DailyExceeded:
		return fmt.Errorf("%w: %d minutes already booked, %d requested, limit %d",
			ErrDailyLimitExceeded, d.MinutesOnDate, duration, p.DailyMinutes)
	case d.WeeklyExceeded:
		return fmt.Errorf("%w: %d bookings in the week of %s, limit %d",
			ErrWeeklyLimitExceeded, d.BookingsInWeek, models.FormatDate(d.WeekStart), p.WeeklyBookings)
	default:
		return nil
	}
}

// Evaluate runs both checks independently against a user's existing bookings.
func (p Policy) Evaluate(existing []models.Booking, date time.Time, duration int) Decision {
	day := models.DateOf(date)
	weekStart := StartOfWeek(day, p.WeekStart)
	weekEnd := weekStart.AddDate(0, 0, 7)

	decision := Decision{WeekStart: weekStart}
	for _, booking := range existing {
		bookedOn := models.DateOf(booking.Date.In(day.Location()))
		if bookedOn.Equal(day) {
			decision.MinutesOnDate += booking.Duration
		}
		if !bookedOn.Before(weekStart) && bookedOn.Before(weekEnd) {
			decision.BookingsInWeek++
		}
	}

	decision.DailyExceeded = decision.MinutesOnDate+duration > p.DailyMinutes
	decision.WeeklyExceeded = decision.BookingsInWeek >= p.WeeklyBookings
	return decision
}

func (p Policy) Check(existing []models.Booking, date time.Time, duration int) error {
	return p.Evaluate(existing, date, duration).Err(p, duration)
}

// StartOfWeek returns midnight of the most recent weekStart on or before date.
func StartOfWeek(date time.Time, weekStart time.Weekday) time.Time {
	day := models.DateOf(date)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}
