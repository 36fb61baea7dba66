package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

// WorkingSet is the transient set of records a single query runs against:
// typically one date's bookings and all tournaments.
type WorkingSet struct {
	Bookings    []models.Booking
	Tournaments []models.Tournament
}

type SlotStatus struct {
	Slot     Slot `json:"slot"`
	Occupied bool `json:"occupied"`
	Disabled bool `json:"disabled"`
}

// Engine answers occupancy questions for a grid. It holds no records; every
// call receives its working set explicitly.
type Engine struct {
	grid Grid
}

func NewEngine(grid Grid) (*Engine, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return &Engine{grid: grid}, nil
}

func (e *Engine) Grid() Grid {
	return e.grid
}

// IsSlotOccupied reports whether the instant date@slot lies in [start, end) of a
// booking on that date or of a tournament that starts on that date.
func (e *Engine) IsSlotOccupied(ws WorkingSet, date time.Time, slot Slot) bool {
	instant := slot.At(date)

	for _, booking := range ws.Bookings {
		if !models.SameDay(date, booking.Date) {
			continue
		}
		start := booking.StartTime.On(date)
		end := booking.EndTime.On(date)
		if !instant.Before(start) && instant.Before(end) {
			return true
		}
	}

	for _, tournament := range ws.Tournaments {
		if tournament.Blocks(instant) {
			return true
		}
	}
	return false
}

// IsSlotUnavailable reports whether a booking of duration minutes cannot start at
// slot. A 60-minute booking needs the cell and its successor free; when the
// successor is past closing the slot is unavailable.
func (e *Engine) IsSlotUnavailable(ws WorkingSet, date time.Time, slot Slot, duration int) bool {
	if !e.grid.Contains(slot) {
		return true
	}
	if e.IsSlotOccupied(ws, date, slot) {
		return true
	}
	if duration == models.Duration60 {
		next := slot.Next()
		if !e.grid.Contains(next) {
			return true
		}
		return e.IsSlotOccupied(ws, date, next)
	}
	return false
}

func (e *Engine) TournamentsOnDate(ws WorkingSet, date time.Time) []models.Tournament {
	var matches []models.Tournament
	for _, tournament := range ws.Tournaments {
		if tournament.StartAt.IsZero() || tournament.EndAt.IsZero() {
			continue
		}
		if models.SameDay(date, tournament.StartAt) {
			matches = append(matches, tournament)
		}
	}
	return matches
}

// Availability returns the occupied and disabled flags for every cell of date.
func (e *Engine) Availability(ws WorkingSet, date time.Time, duration int) []SlotStatus {
	slots := e.grid.Slots()
	statuses := make([]SlotStatus, len(slots))
	for i, slot := range slots {
		statuses[i] = SlotStatus{
			Slot:     slot,
			Occupied: e.IsSlotOccupied(ws, date, slot),
			Disabled: e.IsSlotUnavailable(ws, date, slot, duration),
		}
	}
	return statuses
}

// CheckCandidate returns a ConflictError when a booking of duration minutes
// cannot start at slot on date.
func (e *Engine) CheckCandidate(ws WorkingSet, date time.Time, slot Slot, duration int) error {
	if !e.grid.Contains(slot) {
		return fmt.Errorf("%w: slot %s is outside the service window", models.ErrInputInvalid, slot)
	}
	if !e.IsSlotUnavailable(ws, date, slot, duration) {
		return nil
	}

	var blocked []string
	if e.IsSlotOccupied(ws, date, slot) {
		blocked = append(blocked, slot.String())
	}
	if duration == models.Duration60 {
		next := slot.Next()
		switch {
		case !e.grid.Contains(next):
			blocked = append(blocked, next.String()+" (closed)")
		case e.IsSlotOccupied(ws, date, next):
			blocked = append(blocked, next.String())
		}
	}
	return ConflictError{Date: models.FormatDate(date), Slots: blocked}
}

type ConflictError struct {
	Date  string
	Slots []string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("slots unavailable on %s: %s", e.Date, strings.Join(e.Slots, ", "))
}

func (e ConflictError) Is(target error) bool {
	return target == models.ErrConflict
}
