package booking

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/availability"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

// DayView is everything a calendar needs to render one date.
type DayView struct {
	Date         time.Time                 `json:"-"`
	Duration     int                       `json:"duration"`
	Slots        []availability.SlotStatus `json:"slots"`
	Tournaments  []models.Tournament       `json:"tournaments"`
	UserBookings []models.Booking          `json:"userBookings"`
}

// Availability loads the working set for date and reports every grid cell for
// a booking of duration minutes. When username is set the user's bookings are
// included.
func (o *Orchestrator) Availability(ctx context.Context, date time.Time, duration int, username string) (DayView, error) {
	if date.IsZero() {
		return DayView{}, fmt.Errorf("%w: a date must be selected", models.ErrInputInvalid)
	}
	if !models.ValidDuration(duration) {
		return DayView{}, fmt.Errorf("%w: duration must be %d or %d minutes",
			models.ErrInputInvalid, models.Duration30, models.Duration60)
	}
	date = models.DateOf(date)

	ws, userBookings, err := o.loadWorkingSet(ctx, date, username)
	if err != nil {
		return DayView{}, storeFailure(err).Err
	}

	view := DayView{
		Date:         date,
		Duration:     duration,
		Slots:        o.engine.Availability(ws, date, duration),
		Tournaments:  o.engine.TournamentsOnDate(ws, date),
		UserBookings: userBookings,
	}
	if view.Tournaments == nil {
		view.Tournaments = []models.Tournament{}
	}
	if view.UserBookings == nil {
		view.UserBookings = []models.Booking{}
	}
	return view, nil
}

// Upcoming returns the user's bookings that have not started yet, earliest first.
func (o *Orchestrator) Upcoming(ctx context.Context, username string) ([]models.Booking, error) {
	username, err := models.NormalizeUsername(username)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := o.storeContext(ctx)
	defer cancel()

	bookings, err := o.store.ListBookingsByUser(callCtx, username)
	if err != nil {
		return nil, storeFailure(err).Err
	}

	now := o.clock.Now()
	upcoming := make([]models.Booking, 0, len(bookings))
	for _, booking := range bookings {
		if booking.Start().Before(now) {
			continue
		}
		upcoming = append(upcoming, booking)
	}
	slices.SortStableFunc(upcoming, func(a, b models.Booking) int {
		return a.Start().Compare(b.Start())
	})
	return upcoming, nil
}

// BookingsOn returns every booking on date.
func (o *Orchestrator) BookingsOn(ctx context.Context, date time.Time) ([]models.Booking, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: a date must be selected", models.ErrInputInvalid)
	}

	callCtx, cancel := o.storeContext(ctx)
	defer cancel()

	bookings, err := o.store.ListBookingsByDate(callCtx, models.DateOf(date))
	if err != nil {
		return nil, storeFailure(err).Err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// BookingsFor returns all of the user's bookings, past ones included.
func (o *Orchestrator) BookingsFor(ctx context.Context, username string) ([]models.Booking, error) {
	username, err := models.NormalizeUsername(username)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := o.storeContext(ctx)
	defer cancel()

	bookings, err := o.store.ListBookingsByUser(callCtx, username)
	if err != nil {
		return nil, storeFailure(err).Err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}
