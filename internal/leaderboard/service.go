package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

type Store interface {
	ListBookingsBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	// Location is the zone booking dates are stored in.
	Location() *time.Location
}

type Board struct {
	Period  Period    `json:"period"`
	Label   string    `json:"label"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Entries []Entry   `json:"entries"`
	Summary Summary   `json:"summary"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store, now func() time.Time) (*Service, error) {
	if store == nil {
		return nil, errors.New("leaderboard service requires a store")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}, nil
}

// MostActive loads bookings and tournaments and ranks users for period. The
// summary always covers the full ranking; limit only trims Entries.
func (s *Service) MostActive(ctx context.Context, period Period, limit int) (Board, error) {
	now := s.now()
	if loc := s.store.Location(); loc != nil {
		now = now.In(loc)
	}
	from := period.Start(now)

	logger := log.Ctx(ctx).With().
		Str("component", "leaderboard").
		Str("period", string(period)).
		Logger()

	// Dates are stored without a time, so widen to whole days and let Compute
	// apply the exact instant bounds.
	bookings, err := s.store.ListBookingsBetween(ctx, models.DateOf(from), models.DateOf(now))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load bookings for leaderboard")
		return Board{}, fmt.Errorf("list bookings: %w", err)
	}
	tournaments, err := s.store.ListTournaments(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load tournaments for leaderboard")
		return Board{}, fmt.Errorf("list tournaments: %w", err)
	}

	entries := Compute(bookings, tournaments, period, now)
	logger.Debug().
		Int("booking_count", len(bookings)).
		Int("tournament_count", len(tournaments)).
		Int("entry_count", len(entries)).
		Msg("Leaderboard computed")

	return Board{
		Period:  period,
		Label:   period.Label(),
		From:    from,
		To:      now,
		Entries: Top(entries, limit),
		Summary: Summarize(entries),
	}, nil
}
