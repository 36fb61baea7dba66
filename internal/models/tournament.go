package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type TournamentFormat string

const (
	FormatSingles TournamentFormat = "singles"
	FormatDoubles TournamentFormat = "doubles"
)

// ParseTournamentFormat defaults an empty value to singles.
func ParseTournamentFormat(raw string) (TournamentFormat, error) {
	switch TournamentFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatSingles:
		return FormatSingles, nil
	case FormatDoubles:
		return FormatDoubles, nil
	default:
		return "", fmt.Errorf("%w: format must be singles or doubles", ErrInputInvalid)
	}
}

type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

func ParseTournamentStatus(raw string) (TournamentStatus, error) {
	switch status := TournamentStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case StatusUpcoming, StatusOngoing, StatusCompleted:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown tournament status %q", ErrInputInvalid, raw)
	}
}

type Tournament struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Format       TournamentFormat `json:"format"`
	StartAt      time.Time        `json:"startDate"`
	EndAt        time.Time        `json:"endDate"`
	Participants []string         `json:"participants"`
	Winner       string           `json:"winner,omitempty"`
	CreatedBy    string           `json:"createdBy"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Status is derived from now relative to the tournament window.
func (t Tournament) Status(now time.Time) TournamentStatus {
	switch {
	case now.Before(t.StartAt):
		return StatusUpcoming
	case now.Before(t.EndAt):
		return StatusOngoing
	default:
		return StatusCompleted
	}
}

// Blocks reports whether instant falls inside the blackout window. Only the
// calendar day of StartAt is blocked, even when the window runs past midnight.
func (t Tournament) Blocks(instant time.Time) bool {
	if t.StartAt.IsZero() || t.EndAt.IsZero() {
		return false
	}
	if !SameDay(instant, t.StartAt) {
		return false
	}
	return !instant.Before(t.StartAt) && instant.Before(t.EndAt)
}

func (t Tournament) HasParticipant(username string) bool {
	return slices.Contains(t.Participants, username)
}

// Join appends username to the participant set.
func (t *Tournament) Join(username string) error {
	if t.HasParticipant(username) {
		return fmt.Errorf("%w: %s is already registered for %s", ErrAlreadyJoined, username, t.Name)
	}
	t.Participants = append(t.Participants, username)
	return nil
}

// MaxParticipants is the display capacity: 8 players for singles, 8 teams of 2 for doubles.
func (t Tournament) MaxParticipants() int {
	if t.Format == FormatDoubles {
		return 16
	}
	return 8
}

func (t Tournament) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tournament name is required", ErrInputInvalid)
	}
	if t.StartAt.IsZero() || t.EndAt.IsZero() {
		return fmt.Errorf("%w: tournament start and end are required", ErrInputInvalid)
	}
	if !t.EndAt.After(t.StartAt) {
		return fmt.Errorf("%w: end time must be after start time", ErrInputInvalid)
	}
	if t.Format != FormatSingles && t.Format != FormatDoubles {
		return fmt.Errorf("%w: format must be singles or doubles", ErrInputInvalid)
	}
	return nil
}
