package availability

import (
	"fmt"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

// SlotMinutes is the width of one grid cell.
const SlotMinutes = 30

// Slot addresses one half-hour cell by its start.
type Slot struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func NewSlot(hour, minute int) Slot {
	return Slot{Hour: hour, Minute: minute}
}

// ParseSlot parses an "HH:MM" cell start. The minute must be 00 or 30.
func ParseSlot(raw string) (Slot, error) {
	tod, err := models.ParseTimeOfDay(raw)
	if err != nil {
		return Slot{}, err
	}
	slot := SlotOf(tod)
	if !slot.aligned() {
		return Slot{}, fmt.Errorf("%w: slot %s is not on the %d-minute grid", models.ErrInputInvalid, tod, SlotMinutes)
	}
	return slot, nil
}

func SlotOf(tod models.TimeOfDay) Slot {
	return Slot{Hour: tod.Hour(), Minute: tod.Minute()}
}

func (s Slot) TimeOfDay() models.TimeOfDay {
	return models.NewTimeOfDay(s.Hour, s.Minute)
}

// Next returns the following cell. The :30 cell of hour H rolls over to :00 of H+1.
func (s Slot) Next() Slot {
	if s.Minute == 0 {
		return Slot{Hour: s.Hour, Minute: SlotMinutes}
	}
	return Slot{Hour: s.Hour + 1, Minute: 0}
}

// At returns the instant the cell starts on date.
func (s Slot) At(date time.Time) time.Time {
	return s.TimeOfDay().On(date)
}

func (s Slot) String() string {
	return s.TimeOfDay().String()
}

func (s Slot) aligned() bool {
	return s.Minute == 0 || s.Minute == SlotMinutes
}

// Grid is the bookable service window, [OpenHour:00, CloseHour:00).
type Grid struct {
	OpenHour  int
	CloseHour int
}

var DefaultGrid = Grid{OpenHour: 9, CloseHour: 21}

func (g Grid) Validate() error {
	if g.OpenHour < 0 || g.CloseHour > 24 || g.OpenHour >= g.CloseHour {
		return fmt.Errorf("service window %02d:00-%02d:00 is invalid", g.OpenHour, g.CloseHour)
	}
	return nil
}

// Contains reports whether s is a cell of the grid.
func (g Grid) Contains(s Slot) bool {
	return s.aligned() && s.Hour >= g.OpenHour && s.Hour < g.CloseHour
}

// Slots lists every cell in order, 09:00 through 20:30 for the default grid.
func (g Grid) Slots() []Slot {
	slots := make([]Slot, 0, (g.CloseHour-g.OpenHour)*2)
	for hour := g.OpenHour; hour < g.CloseHour; hour++ {
		slots = append(slots, Slot{Hour: hour, Minute: 0}, Slot{Hour: hour, Minute: SlotMinutes})
	}
	return slots
}
