// internal/api/leaderboard/handlers.go
package leaderboard

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api/apiutil"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/leaderboard"
)

const maxLimit = 100

type Handlers struct {
	service       *leaderboard.Service
	defaultPeriod leaderboard.Period
	defaultLimit  int
}

// NewHandlers serves the board. A defaultLimit of 0 returns every ranked user.
func NewHandlers(service *leaderboard.Service, defaultPeriod leaderboard.Period, defaultLimit int) *Handlers {
	if defaultPeriod == "" {
		defaultPeriod = leaderboard.PeriodWeek
	}
	return &Handlers{service: service, defaultPeriod: defaultPeriod, defaultLimit: defaultLimit}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/leaderboard", h.HandleLeaderboard)
}

// GET /api/v1/leaderboard?period=week|month|quarter|year&limit=10
func (h *Handlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	period := h.defaultPeriod
	if raw := strings.TrimSpace(query.Get("period")); raw != "" {
		parsed, err := leaderboard.ParsePeriod(raw)
		if err != nil {
			apiutil.WriteError(w, r, err, "")
			return
		}
		period = parsed
	}

	limit := h.defaultLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := apiutil.ParsePositiveIntField(raw, "limit")
		if err != nil {
			apiutil.WriteError(w, r, err, "")
			return
		}
		limit = min(parsed, maxLimit)
	}

	board, err := h.service.MostActive(r.Context(), period, limit)
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, board); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write leaderboard response")
	}
}
