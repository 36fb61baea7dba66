package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const MaxUsernameLength = 32

type User struct {
	Username      string    `json:"username"`
	Bookings      []string  `json:"bookings"`
	TotalBookings int       `json:"totalBookings"`
	Tournaments   []string  `json:"tournaments"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewUser(username string, now time.Time) User {
	return User{
		Username:    username,
		Bookings:    []string{},
		Tournaments: []string{},
		CreatedAt:   now,
	}
}

// NormalizeUsername trims a self-asserted handle and checks it is usable as a key.
func NormalizeUsername(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: username is required", ErrInputInvalid)
	}
	if len(trimmed) > MaxUsernameLength {
		return "", fmt.Errorf("%w: username must be %d characters or fewer", ErrInputInvalid, MaxUsernameLength)
	}
	return trimmed, nil
}

func (u User) HasBooking(id string) bool {
	return slices.Contains(u.Bookings, id)
}

func (u User) InTournament(id string) bool {
	return slices.Contains(u.Tournaments, id)
}
