package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Duration30 = 30
	Duration60 = 60
)

// ValidDuration reports whether minutes is a bookable duration.
func ValidDuration(minutes int) bool {
	return minutes == Duration30 || minutes == Duration60
}

type Booking struct {
	ID        string
	Username  string
	Date      time.Time
	StartTime TimeOfDay
	EndTime   TimeOfDay
	Duration  int
	CreatedAt time.Time
}

// NewBooking builds a booking for date starting at start. EndTime is derived from duration.
func NewBooking(username string, date time.Time, start TimeOfDay, duration int, now time.Time) Booking {
	return Booking{
		ID:        uuid.NewString(),
		Username:  username,
		Date:      DateOf(date),
		StartTime: start,
		EndTime:   start.Add(duration),
		Duration:  duration,
		CreatedAt: now,
	}
}

func (b Booking) Start() time.Time {
	return b.StartTime.On(b.Date)
}

func (b Booking) End() time.Time {
	return b.EndTime.On(b.Date)
}

// PlayMinutes is computed from the stored start and end, not from Duration.
func (b Booking) PlayMinutes() int {
	return int(b.EndTime - b.StartTime)
}

func (b Booking) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: booking id is required", ErrInputInvalid)
	}
	if strings.TrimSpace(b.Username) == "" {
		return fmt.Errorf("%w: booking username is required", ErrInputInvalid)
	}
	if b.Date.IsZero() {
		return fmt.Errorf("%w: booking date is required", ErrInputInvalid)
	}
	if !ValidDuration(b.Duration) {
		return fmt.Errorf("%w: duration must be %d or %d minutes", ErrInputInvalid, Duration30, Duration60)
	}
	if b.EndTime != b.StartTime.Add(b.Duration) {
		return fmt.Errorf("%w: end time %s does not match start %s plus %d minutes", ErrInputInvalid, b.EndTime, b.StartTime, b.Duration)
	}
	return nil
}

type bookingJSON struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Date      string    `json:"date"`
	StartTime TimeOfDay `json:"startTime"`
	EndTime   TimeOfDay `json:"endTime"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"createdAt"`
}

func (b Booking) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookingJSON{
		ID:        b.ID,
		Username:  b.Username,
		Date:      FormatDate(b.Date),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Duration:  b.Duration,
		CreatedAt: b.CreatedAt,
	})
}
