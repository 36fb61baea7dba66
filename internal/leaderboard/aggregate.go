package leaderboard

import (
	"sort"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

type Entry struct {
	Username    string `json:"username"`
	PlayMinutes int    `json:"playTime"`
	Bookings    int    `json:"bookings"`
	Tournaments int    `json:"tournaments"`
}

type Summary struct {
	TotalMinutes  int `json:"totalMinutes"`
	TotalBookings int `json:"totalBookings"`
	ActivePlayers int `json:"activePlayers"`
	Tournaments   int `json:"tournaments"`
}

// Compute ranks users by play time over [period.Start(now), now]. Bookings are
// keyed by their start instant and tournaments by their start; ties keep the
// order in which users were first seen.
func Compute(bookings []models.Booking, tournaments []models.Tournament, period Period, now time.Time) []Entry {
	start := period.Start(now)
	inWindow := func(instant time.Time) bool {
		return !instant.Before(start) && !instant.After(now)
	}

	entries := make(map[string]*Entry)
	var order []string
	entryFor := func(username string) *Entry {
		entry, ok := entries[username]
		if !ok {
			entry = &Entry{Username: username}
			entries[username] = entry
			order = append(order, username)
		}
		return entry
	}

	for _, booking := range bookings {
		if !inWindow(booking.Start()) {
			continue
		}
		entry := entryFor(booking.Username)
		entry.PlayMinutes += booking.PlayMinutes()
		entry.Bookings++
	}

	for _, tournament := range tournaments {
		if tournament.StartAt.IsZero() || !inWindow(tournament.StartAt) {
			continue
		}
		for _, username := range tournament.Participants {
			entryFor(username).Tournaments++
		}
	}

	ranked := make([]Entry, 0, len(order))
	for _, username := range order {
		ranked = append(ranked, *entries[username])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PlayMinutes > ranked[j].PlayMinutes
	})
	return ranked
}

// Summarize reduces a ranked list to the stats card figures. The tournaments
// figure is ceil(total participations / active players), an estimate rather
// than a count of distinct tournaments.
func Summarize(entries []Entry) Summary {
	summary := Summary{ActivePlayers: len(entries)}
	participations := 0
	for _, entry := range entries {
		summary.TotalMinutes += entry.PlayMinutes
		summary.TotalBookings += entry.Bookings
		participations += entry.Tournaments
	}
	if summary.ActivePlayers > 0 {
		summary.Tournaments = (participations + summary.ActivePlayers - 1) / summary.ActivePlayers
	}
	return summary
}

// Top returns at most n leading entries; n <= 0 returns them all.
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
