package booking

import (
	"errors"
	"fmt"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

// State is a step of a single booking attempt.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StatePersisting State = "persisting"
	StateCommitted  State = "committed"
	StateFailed     State = "failed"
)

// Reason qualifies a Rejected or Failed outcome.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonMissingInput        Reason = "missing_input"
	ReasonInvalidSlot         Reason = "invalid_slot"
	ReasonConflict            Reason = "conflict"
	ReasonDailyLimitExceeded  Reason = "daily_limit_exceeded"
	ReasonWeeklyLimitExceeded Reason = "weekly_limit_exceeded"
	ReasonStoreUnavailable    Reason = "store_unavailable"
	ReasonPartialWrite        Reason = "partial_write"
	ReasonUnsupported         Reason = "unsupported"
)

// CancellationMessage is returned for every cancellation request.
const CancellationMessage = "Booking cancellation will be available in a future update."

// AttemptError describes why an attempt ended in Rejected or Failed. It unwraps
// to one of the models sentinels.
type AttemptError struct {
	State  State
	Reason Reason
	Err    error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("booking %s (%s): %v", e.State, e.Reason, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

func rejected(reason Reason, err error) *AttemptError {
	return &AttemptError{State: StateRejected, Reason: reason, Err: err}
}

func failed(reason Reason, err error) *AttemptError {
	return &AttemptError{State: StateFailed, Reason: reason, Err: err}
}

// storeFailure makes sure err answers errors.Is(err, models.ErrStoreUnavailable).
func storeFailure(err error) *AttemptError {
	if !errors.Is(err, models.ErrStoreUnavailable) {
		err = fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}
	return failed(ReasonStoreUnavailable, err)
}
