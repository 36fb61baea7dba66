// Package users registers and looks up self-asserted player handles.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

type Store interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, username string) (models.User, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store, now func() time.Time) (*Service, error) {
	if store == nil {
		return nil, errors.New("users service requires a store")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}, nil
}

// Register creates a user for the trimmed handle. A handle already in use is
// reported as models.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, rawUsername string) (models.User, error) {
	username, err := models.NormalizeUsername(rawUsername)
	if err != nil {
		return models.User{}, err
	}

	user := models.NewUser(username, s.now())
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return models.User{}, fmt.Errorf("username %s is already taken: %w", username, err)
		}
		return models.User{}, err
	}

	log.Ctx(ctx).Info().Str("component", "users").Str("username", username).Msg("User registered")
	return user, nil
}

func (s *Service) Get(ctx context.Context, rawUsername string) (models.User, error) {
	username, err := models.NormalizeUsername(rawUsername)
	if err != nil {
		return models.User{}, err
	}
	return s.store.GetUser(ctx, username)
}
