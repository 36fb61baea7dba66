// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api"
	bookingapi "github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api/bookings"
	leaderboardapi "github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api/leaderboard"
	tournamentsapi "github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api/tournaments"
	usersapi "github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api/users"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/availability"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/booking"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/config"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/db"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/leaderboard"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/quota"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/ratelimit"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/scheduler"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/tournaments"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/users"
)

// app owns the long-lived collaborators behind the HTTP handlers.
type app struct {
	database  *db.DB
	scheduler *scheduler.Service
	limiter   *ratelimit.Limiter
	routes    []interface{ Register(*http.ServeMux) }

	closeOnce sync.Once
}

func newApp(cfg *config.Config) (*app, error) {
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{database: database}

	loc := cfg.Booking.Location()
	engine, err := availability.NewEngine(availability.Grid{
		OpenHour:  cfg.Booking.OpenHour,
		CloseHour: cfg.Booking.CloseHour,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build availability engine: %w", err)
	}

	orchestrator, err := booking.NewOrchestrator(database, engine, booking.Config{
		Policy: quota.Policy{
			DailyMinutes:   cfg.Booking.DailyLimitMinutes,
			WeeklyBookings: cfg.Booking.WeeklyLimitBookings,
			WeekStart:      cfg.Booking.WeekStart(),
		},
		SerializeWrites: cfg.Booking.SerializeWritesEnabled(),
		StoreTimeout:    cfg.Booking.StoreTimeout,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build booking orchestrator: %w", err)
	}

	userService, err := users.NewService(database, nil)
	if err != nil {
		a.Close()
		return nil, err
	}
	tournamentService, err := tournaments.NewService(database, nil)
	if err != nil {
		a.Close()
		return nil, err
	}
	leaderboardService, err := leaderboard.NewService(database, nil)
	if err != nil {
		a.Close()
		return nil, err
	}
	defaultPeriod, err := leaderboard.ParsePeriod(cfg.Leaderboard.DefaultPeriod)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.RateLimit.Enabled {
		a.limiter = ratelimit.New(&ratelimit.Config{
			AttemptCooldown:   cfg.RateLimit.AttemptCooldown,
			AttemptMaxPerHour: cfg.RateLimit.AttemptMaxPerHour,
			WriteMaxIPPerHour: cfg.RateLimit.WriteMaxIPPerHour,
		})
	}

	if cfg.Scheduler.Enabled {
		a.scheduler, err = scheduler.New(loc)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create scheduler: %w", err)
		}
		if _, err := scheduler.RegisterOrphanAuditJob(a.scheduler, database, cfg.Scheduler.OrphanAuditCron); err != nil {
			a.Close()
			return nil, fmt.Errorf("register orphan audit job: %w", err)
		}
	}

	a.routes = []interface{ Register(*http.ServeMux) }{
		usersapi.NewHandlers(userService),
		bookingapi.NewHandlers(orchestrator, a.limiter, loc),
		tournamentsapi.NewHandlers(tournamentService, loc),
		leaderboardapi.NewHandlers(leaderboardService, defaultPeriod, cfg.Leaderboard.TopN),
	}
	return a, nil
}

// Close stops background work and releases the database. Safe to call twice.
func (a *app) Close() {
	a.closeOnce.Do(func() {
		if a.scheduler != nil {
			if err := a.scheduler.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}
		if a.limiter != nil {
			a.limiter.Close()
		}
		if a.database != nil {
			if err := a.database.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}
	})
}

func newServer(cfg *config.Config, a *app) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	middleware := []api.Middleware{
		api.WithLogging,
		api.WithRecovery,
	}
	if a.limiter != nil {
		middleware = append(middleware, a.limiter.Middleware(cfg.RateLimit.TrustProxy))
	}
	middleware = append(middleware, api.WithRequestID, api.WithContentType)
	handler := api.ChainMiddleware(router, middleware...)

	// Register routes
	registerRoutes(router, a)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, a *app) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := a.database.PingContext(r.Context()); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	for _, routes := range a.routes {
		routes.Register(mux)
	}
}
