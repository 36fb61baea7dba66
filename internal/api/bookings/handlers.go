// internal/api/bookings/handlers.go
package bookings

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api/apiutil"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/availability"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/booking"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/ratelimit"
)

type Handlers struct {
	orchestrator *booking.Orchestrator
	limiter      *ratelimit.Limiter
	loc          *time.Location
}

// NewHandlers wires the booking routes. A nil limiter disables attempt throttling.
func NewHandlers(orchestrator *booking.Orchestrator, limiter *ratelimit.Limiter, loc *time.Location) *Handlers {
	if loc == nil {
		loc = time.Local
	}
	return &Handlers{orchestrator: orchestrator, limiter: limiter, loc: loc}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/availability", h.HandleAvailability)
	mux.HandleFunc("GET /api/v1/bookings", h.HandleListBookings)
	mux.HandleFunc("POST /api/v1/bookings", h.HandleCreateBooking)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", h.HandleCancelBooking)
}

type availabilityResponse struct {
	Date string `json:"date"`
	booking.DayView
}

// GET /api/v1/availability?date=YYYY-MM-DD&duration=30|60&username=
func (h *Handlers) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date, err := apiutil.ParseDateField(query.Get("date"), "date", h.loc)
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}
	duration, err := apiutil.ParseDurationField(query.Get("duration"))
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	view, err := h.orchestrator.Availability(r.Context(), date, duration, strings.TrimSpace(query.Get("username")))
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, availabilityResponse{Date: models.FormatDate(view.Date), DayView: view}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write availability response")
	}
}

// GET /api/v1/bookings?date=YYYY-MM-DD or ?username=alice[&upcoming=true]
func (h *Handlers) HandleListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rawDate := strings.TrimSpace(query.Get("date"))
	username := strings.TrimSpace(query.Get("username"))

	var (
		list []models.Booking
		err  error
	)
	switch {
	case rawDate != "":
		var date time.Time
		date, err = apiutil.ParseDateField(rawDate, "date", h.loc)
		if err == nil {
			list, err = h.orchestrator.BookingsOn(r.Context(), date)
		}
	case username != "":
		upcoming, parseErr := strconv.ParseBool(defaultString(query.Get("upcoming"), "false"))
		if parseErr != nil {
			err = apiutil.FieldError{Field: "upcoming", Reason: "must be true or false"}
			break
		}
		if upcoming {
			list, err = h.orchestrator.Upcoming(r.Context(), username)
		} else {
			list, err = h.orchestrator.BookingsFor(r.Context(), username)
		}
	default:
		err = apiutil.FieldError{Field: "date", Reason: "or username is required"}
	}
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"bookings": list}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write bookings response")
	}
}

type createBookingRequest struct {
	Username string `json:"username"`
	Date     string `json:"date"`
	Slot     string `json:"slot"`
	Duration int    `json:"duration"`
}

type attemptResponse struct {
	State    booking.State    `json:"state"`
	Reason   booking.Reason   `json:"reason,omitempty"`
	Booking  *models.Booking  `json:"booking,omitempty"`
	Refresh  *booking.Refresh `json:"refresh,omitempty"`
	Orphaned bool             `json:"orphaned,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// POST /api/v1/bookings
func (h *Handlers) HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req createBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err, string(booking.ReasonMissingInput))
		return
	}

	if h.limiter != nil && strings.TrimSpace(req.Username) != "" {
		result := h.limiter.CheckAttempt(req.Username)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(r.Context(), "booking_attempt", req.Username, result.Reason)
			ratelimit.WriteRetryAfter(w, result.RetryAfter)
			apiutil.WriteError(w, r, apiutil.HandlerError{
				Status:  http.StatusTooManyRequests,
				Message: "Too many booking attempts, please wait before trying again",
			}, result.Reason)
			return
		}
		h.limiter.RecordAttempt(req.Username)
	}

	bookingReq := booking.Request{Username: req.Username, Duration: req.Duration}
	if strings.TrimSpace(req.Date) != "" {
		date, err := apiutil.ParseDateField(req.Date, "date", h.loc)
		if err != nil {
			apiutil.WriteError(w, r, err, string(booking.ReasonMissingInput))
			return
		}
		bookingReq.Date = date
	}
	if strings.TrimSpace(req.Slot) != "" {
		slot, err := availability.ParseSlot(req.Slot)
		if err != nil {
			apiutil.WriteError(w, r, err, string(booking.ReasonInvalidSlot))
			return
		}
		bookingReq.Slot = &slot
	}

	result, err := h.orchestrator.Book(r.Context(), bookingReq)
	if err != nil {
		var attemptErr *booking.AttemptError
		if !errors.As(err, &attemptErr) {
			apiutil.WriteError(w, r, err, "")
			return
		}
		status := apiutil.StatusFor(err)
		message := attemptErr.Err.Error()
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Bool("orphaned", result.Orphaned).Msg("Booking attempt failed")
			message = "The booking could not be saved, please try again"
		}
		if writeErr := apiutil.WriteJSON(w, status, attemptResponse{
			State:    result.State,
			Reason:   result.Reason,
			Orphaned: result.Orphaned,
			Error:    message,
		}); writeErr != nil {
			logger.Error().Err(writeErr).Msg("Failed to write booking response")
		}
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, attemptResponse{
		State:   result.State,
		Booking: result.Booking,
		Refresh: result.Refresh,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to write booking response")
	}
}

// DELETE /api/v1/bookings/{id}
func (h *Handlers) HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathValue(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	err = h.orchestrator.Cancel(r.Context(), id, r.URL.Query().Get("username"))
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if errors.Is(err, models.ErrUnsupported) {
		err = apiutil.HandlerError{Status: http.StatusNotImplemented, Message: booking.CancellationMessage, Err: err}
	}
	apiutil.WriteError(w, r, err, string(booking.ReasonUnsupported))
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
