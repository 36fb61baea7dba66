// Package tournaments creates tournaments, registers participants and records
// winners. Tournament windows feed the availability engine as blackouts.
package tournaments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

type Store interface {
	GetUser(ctx context.Context, username string) (models.User, error)
	CreateTournament(ctx context.Context, tournament models.Tournament) (string, error)
	GetTournament(ctx context.Context, id string) (models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, tournament models.Tournament) error
	JoinTournament(ctx context.Context, tournamentID, username string) error
}

// CreateRequest describes a tournament held on Date between Start and End.
type CreateRequest struct {
	Name      string
	Format    string
	Date      time.Time
	Start     *models.TimeOfDay
	End       *models.TimeOfDay
	CreatedBy string
}

// Listing is a tournament with its status derived at read time.
type Listing struct {
	models.Tournament
	Status           models.TournamentStatus `json:"status"`
	ParticipantCount int                     `json:"participantCount"`
	MaxParticipants  int                     `json:"maxParticipants"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store, now func() time.Time) (*Service, error) {
	if store == nil {
		return nil, errors.New("tournaments service requires a store")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}, nil
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	logger := log.Ctx(ctx).With().Str("component", "tournaments").Logger()
	return &logger
}

func (s *Service) listing(tournament models.Tournament) Listing {
	return Listing{
		Tournament:       tournament,
		Status:           tournament.Status(s.now()),
		ParticipantCount: len(tournament.Participants),
		MaxParticipants:  tournament.MaxParticipants(),
	}
}

// Create stores a new tournament with its creator as the first participant.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Listing, error) {
	creator, err := models.NormalizeUsername(req.CreatedBy)
	if err != nil {
		return Listing{}, err
	}
	if strings.TrimSpace(req.Name) == "" || req.Date.IsZero() || req.Start == nil || req.End == nil {
		return Listing{}, fmt.Errorf("%w: name, date, start time and end time are required", models.ErrInputInvalid)
	}
	format, err := models.ParseTournamentFormat(req.Format)
	if err != nil {
		return Listing{}, err
	}
	if err := s.requireUser(ctx, creator); err != nil {
		return Listing{}, err
	}

	date := models.DateOf(req.Date)
	tournament := models.Tournament{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Format:       format,
		StartAt:      req.Start.On(date),
		EndAt:        req.End.On(date),
		Participants: []string{creator},
		CreatedBy:    creator,
		CreatedAt:    s.now(),
	}
	if err := tournament.Validate(); err != nil {
		return Listing{}, err
	}

	if _, err := s.store.CreateTournament(ctx, tournament); err != nil {
		return Listing{}, err
	}

	s.logger(ctx).Info().
		Str("tournament_id", tournament.ID).
		Str("created_by", creator).
		Time("start_at", tournament.StartAt).
		Time("end_at", tournament.EndAt).
		Msg("Tournament created")
	return s.listing(tournament), nil
}

// Join adds username to the tournament. Joining twice returns models.ErrAlreadyJoined.
func (s *Service) Join(ctx context.Context, tournamentID, rawUsername string) (Listing, error) {
	username, err := models.NormalizeUsername(rawUsername)
	if err != nil {
		return Listing{}, err
	}
	if err := s.requireUser(ctx, username); err != nil {
		return Listing{}, err
	}

	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return Listing{}, err
	}
	if err := tournament.Join(username); err != nil {
		return Listing{}, err
	}
	if err := s.store.JoinTournament(ctx, tournament.ID, username); err != nil {
		return Listing{}, err
	}

	s.logger(ctx).Info().
		Str("tournament_id", tournament.ID).
		Str("username", username).
		Int("participants", len(tournament.Participants)).
		Msg("Tournament joined")
	return s.listing(tournament), nil
}

// SetWinner records the winner. The winner must be a participant.
func (s *Service) SetWinner(ctx context.Context, tournamentID, rawUsername string) (Listing, error) {
	username, err := models.NormalizeUsername(rawUsername)
	if err != nil {
		return Listing{}, err
	}

	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return Listing{}, err
	}
	if !tournament.HasParticipant(username) {
		return Listing{}, fmt.Errorf("%w: %s is not a participant of %s", models.ErrInputInvalid, username, tournament.Name)
	}
	tournament.Winner = username
	if err := s.store.UpdateTournament(ctx, tournament); err != nil {
		return Listing{}, err
	}

	s.logger(ctx).Info().
		Str("tournament_id", tournament.ID).
		Str("winner", username).
		Msg("Tournament winner recorded")
	return s.listing(tournament), nil
}

func (s *Service) Get(ctx context.Context, tournamentID string) (Listing, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return Listing{}, err
	}
	return s.listing(tournament), nil
}

// List returns tournaments in creation order, optionally only those with status.
func (s *Service) List(ctx context.Context, status *models.TournamentStatus) ([]Listing, error) {
	all, err := s.store.ListTournaments(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, 0, len(all))
	for _, tournament := range all {
		listing := s.listing(tournament)
		if status != nil && listing.Status != *status {
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (s *Service) requireUser(ctx context.Context, username string) error {
	if _, err := s.store.GetUser(ctx, username); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: user %s is not registered", models.ErrInputInvalid, username)
		}
		return err
	}
	return nil
}
