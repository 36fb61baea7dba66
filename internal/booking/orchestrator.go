// Package booking sequences a booking attempt: validation against the conflict
// engine and quota policy, persistence, and the post-commit refresh.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/availability"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/quota"
)

const defaultStoreTimeout = 5 * time.Second

// Store is the record store the orchestrator reads and writes through.
type Store interface {
	GetUser(ctx context.Context, username string) (models.User, error)
	ListBookingsByDate(ctx context.Context, date time.Time) ([]models.Booking, error)
	ListBookingsByUser(ctx context.Context, username string) ([]models.Booking, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	InsertBooking(ctx context.Context, booking models.Booking) error
	LinkBookingToUser(ctx context.Context, username, bookingID string) error
	DeleteBooking(ctx context.Context, id string) error
}

// AtomicCreator is implemented by stores that insert a booking and link it to
// its owner in a single transaction.
type AtomicCreator interface {
	CreateBooking(ctx context.Context, booking models.Booking) (string, error)
}

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Config struct {
	Policy quota.Policy
	// SerializeWrites runs attempts for the same date one at a time.
	SerializeWrites bool
	// StoreTimeout bounds every store call (0 uses the default, negative disables).
	StoreTimeout time.Duration
	// Clock for testing (nil uses real time)
	Clock Clock
}

// Request is a candidate booking as submitted by the caller.
type Request struct {
	Username string
	Date     time.Time
	Slot     *availability.Slot
	Duration int
}

// Refresh holds the re-fetched state after a commit.
type Refresh struct {
	DateBookings []models.Booking `json:"dateBookings"`
	UserBookings []models.Booking `json:"userBookings"`
}

type Result struct {
	State   State
	Reason  Reason
	Booking *models.Booking
	Refresh *Refresh
	// Orphaned is set when a partial write could not be compensated and the
	// booking is left in the store without a reference from its owner.
	Orphaned bool
}

type Orchestrator struct {
	store   Store
	engine  *availability.Engine
	policy  quota.Policy
	clock   Clock
	timeout time.Duration
	locks   *dateLocks
}

func NewOrchestrator(store Store, engine *availability.Engine, cfg Config) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("booking orchestrator requires a store")
	}
	if engine == nil {
		return nil, errors.New("booking orchestrator requires an availability engine")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:   store,
		engine:  engine,
		policy:  cfg.Policy,
		clock:   cfg.Clock,
		timeout: cfg.StoreTimeout,
	}
	if o.clock == nil {
		o.clock = realClock{}
	}
	if o.timeout == 0 {
		o.timeout = defaultStoreTimeout
	}
	if cfg.SerializeWrites {
		o.locks = newDateLocks()
	}
	return o, nil
}

func (o *Orchestrator) Engine() *availability.Engine {
	return o.engine
}

func (o *Orchestrator) Policy() quota.Policy {
	return o.policy
}

// storeContext bounds a single store call.
func (o *Orchestrator) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

// Book runs one attempt through Validating, then Persisting, then the refresh.
// The returned error is an *AttemptError whenever the attempt does not commit.
func (o *Orchestrator) Book(ctx context.Context, req Request) (Result, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_orchestrator").
		Str("username", req.Username).
		Logger()
	ctx = logger.WithContext(ctx)

	result := Result{State: StateValidating}
	end := func(attemptErr *AttemptError) (Result, error) {
		result.State = attemptErr.State
		result.Reason = attemptErr.Reason
		event := logger.Info()
		if attemptErr.State == StateFailed {
			event = logger.Error()
		}
		event.Err(attemptErr.Err).
			Str("state", string(attemptErr.State)).
			Str("reason", string(attemptErr.Reason)).
			Msg("Booking attempt ended")
		return result, attemptErr
	}

	username, err := models.NormalizeUsername(req.Username)
	if err != nil {
		return end(rejected(ReasonMissingInput, err))
	}
	if req.Slot == nil {
		return end(rejected(ReasonMissingInput, fmt.Errorf("%w: a slot must be selected", models.ErrInputInvalid)))
	}
	if req.Date.IsZero() {
		return end(rejected(ReasonMissingInput, fmt.Errorf("%w: a date must be selected", models.ErrInputInvalid)))
	}
	slot := *req.Slot
	if !models.ValidDuration(req.Duration) {
		return end(rejected(ReasonInvalidSlot, fmt.Errorf("%w: duration must be %d or %d minutes",
			models.ErrInputInvalid, models.Duration30, models.Duration60)))
	}
	if !o.engine.Grid().Contains(slot) {
		return end(rejected(ReasonInvalidSlot, fmt.Errorf("%w: slot %s is outside the service window",
			models.ErrInputInvalid, slot)))
	}
	date := models.DateOf(req.Date)
	logger = logger.With().Str("date", models.FormatDate(date)).Str("slot", slot.String()).Int("duration", req.Duration).Logger()

	if o.locks != nil {
		unlock := o.locks.lock(models.FormatDate(date))
		defer unlock()
	}

	if _, err := o.getUser(ctx, username); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return end(rejected(ReasonMissingInput, fmt.Errorf("%w: user %s is not registered", models.ErrInputInvalid, username)))
		}
		return end(storeFailure(err))
	}

	ws, userBookings, err := o.loadWorkingSet(ctx, date, username)
	if err != nil {
		return end(storeFailure(err))
	}

	if err := o.engine.CheckCandidate(ws, date, slot, req.Duration); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return end(rejected(ReasonConflict, err))
		}
		return end(rejected(ReasonInvalidSlot, err))
	}

	if err := o.policy.Check(userBookings, date, req.Duration); err != nil {
		switch {
		case errors.Is(err, quota.ErrDailyLimitExceeded):
			return end(rejected(ReasonDailyLimitExceeded, err))
		default:
			return end(rejected(ReasonWeeklyLimitExceeded, err))
		}
	}

	result.State = StatePersisting
	booking := models.NewBooking(username, date, slot.TimeOfDay(), req.Duration, o.clock.Now())
	result.Booking = &booking

	if attemptErr := o.persist(ctx, &result, booking); attemptErr != nil {
		return end(attemptErr)
	}

	result.State = StateCommitted
	logger.Info().Str("booking_id", booking.ID).Msg("Booking committed")

	refresh, err := o.refresh(ctx, date, username)
	if err != nil {
		logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("Post-commit refresh failed")
	} else {
		result.Refresh = refresh
	}
	return result, nil
}

func (o *Orchestrator) getUser(ctx context.Context, username string) (models.User, error) {
	callCtx, cancel := o.storeContext(ctx)
	defer cancel()
	return o.store.GetUser(callCtx, username)
}

// loadWorkingSet reads the date's bookings, all tournaments and the user's bookings.
func (o *Orchestrator) loadWorkingSet(ctx context.Context, date time.Time, username string) (availability.WorkingSet, []models.Booking, error) {
	var (
		ws           availability.WorkingSet
		userBookings []models.Booking
	)

	callCtx, cancel := o.storeContext(ctx)
	defer cancel()

	var err error
	if ws.Bookings, err = o.store.ListBookingsByDate(callCtx, date); err != nil {
		return ws, nil, fmt.Errorf("load bookings for %s: %w", models.FormatDate(date), err)
	}
	if ws.Tournaments, err = o.store.ListTournaments(callCtx); err != nil {
		return ws, nil, fmt.Errorf("load tournaments: %w", err)
	}
	if username != "" {
		if userBookings, err = o.store.ListBookingsByUser(callCtx, username); err != nil {
			return ws, nil, fmt.Errorf("load bookings for %s: %w", username, err)
		}
	}
	return ws, userBookings, nil
}

// persist writes the booking and its link to the owner. Stores without an
// atomic write get insert, link, and a compensating delete when the link fails.
func (o *Orchestrator) persist(ctx context.Context, result *Result, booking models.Booking) *AttemptError {
	logger := log.Ctx(ctx)

	if creator, ok := o.store.(AtomicCreator); ok {
		callCtx, cancel := o.storeContext(ctx)
		defer cancel()
		if _, err := creator.CreateBooking(callCtx, booking); err != nil {
			return storeFailure(err)
		}
		return nil
	}

	insertCtx, cancelInsert := o.storeContext(ctx)
	defer cancelInsert()
	if err := o.store.InsertBooking(insertCtx, booking); err != nil {
		return storeFailure(err)
	}

	linkCtx, cancelLink := o.storeContext(ctx)
	defer cancelLink()
	linkErr := o.store.LinkBookingToUser(linkCtx, booking.Username, booking.ID)
	if linkErr == nil {
		return nil
	}

	logger.Warn().Err(linkErr).Str("booking_id", booking.ID).Msg("Linking booking to user failed, removing booking")

	// The caller's context may already be done; compensation still gets its own budget.
	compCtx, cancelComp := o.storeContext(context.WithoutCancel(ctx))
	defer cancelComp()
	if err := o.store.DeleteBooking(compCtx, booking.ID); err != nil {
		result.Orphaned = true
		logger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to remove orphaned booking")
	}
	return failed(ReasonPartialWrite, fmt.Errorf("%w: booking %s not linked to %s: %w",
		models.ErrPartialWrite, booking.ID, booking.Username, linkErr))
}

// refresh re-fetches the date's and the user's bookings concurrently.
func (o *Orchestrator) refresh(ctx context.Context, date time.Time, username string) (*Refresh, error) {
	callCtx, cancel := o.storeContext(ctx)
	defer cancel()

	var refreshed Refresh
	g, gctx := errgroup.WithContext(callCtx)
	g.Go(func() error {
		bookings, err := o.store.ListBookingsByDate(gctx, date)
		if err != nil {
			return fmt.Errorf("refresh bookings for %s: %w", models.FormatDate(date), err)
		}
		refreshed.DateBookings = bookings
		return nil
	})
	g.Go(func() error {
		bookings, err := o.store.ListBookingsByUser(gctx, username)
		if err != nil {
			return fmt.Errorf("refresh bookings for %s: %w", username, err)
		}
		refreshed.UserBookings = bookings
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &refreshed, nil
}

// Cancel refuses every cancellation request.
func (o *Orchestrator) Cancel(ctx context.Context, bookingID, username string) error {
	log.Ctx(ctx).Info().
		Str("component", "booking_orchestrator").
		Str("booking_id", bookingID).
		Str("username", username).
		Msg("Booking cancellation refused")
	return rejected(ReasonUnsupported, fmt.Errorf("%w: %s", models.ErrUnsupported, CancellationMessage))
}
