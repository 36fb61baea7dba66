// internal/api/tournaments/handlers.go
package tournaments

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api/apiutil"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/tournaments"
)

type Handlers struct {
	service *tournaments.Service
	loc     *time.Location
}

func NewHandlers(service *tournaments.Service, loc *time.Location) *Handlers {
	if loc == nil {
		loc = time.Local
	}
	return &Handlers{service: service, loc: loc}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/tournaments", h.HandleList)
	mux.HandleFunc("POST /api/v1/tournaments", h.HandleCreate)
	mux.HandleFunc("GET /api/v1/tournaments/{id}", h.HandleGet)
	mux.HandleFunc("POST /api/v1/tournaments/{id}/participants", h.HandleJoin)
	mux.HandleFunc("PUT /api/v1/tournaments/{id}/winner", h.HandleSetWinner)
}

type createRequest struct {
	Name      string `json:"name"`
	Format    string `json:"format"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	CreatedBy string `json:"createdBy"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

// GET /api/v1/tournaments?status=upcoming|ongoing|completed
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := models.ParseTournamentStatus(raw)
		if err != nil {
			apiutil.WriteError(w, r, err, "")
			return
		}
		status = &parsed
	}

	listings, err := h.service.List(r.Context(), status)
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"tournaments": listings}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write tournaments response")
	}
}

// POST /api/v1/tournaments
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	date, err := apiutil.ParseDateField(req.Date, "date", h.loc)
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}
	start, err := apiutil.ParseTimeField(req.StartTime, "startTime")
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}
	end, err := apiutil.ParseTimeField(req.EndTime, "endTime")
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	listing, err := h.service.Create(r.Context(), tournaments.CreateRequest{
		Name:      req.Name,
		Format:    req.Format,
		Date:      date,
		Start:     start,
		End:       end,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, listing); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write tournament response")
	}
}

// GET /api/v1/tournaments/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathValue(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, listing); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write tournament response")
	}
}

// POST /api/v1/tournaments/{id}/participants
func (h *Handlers) HandleJoin(w http.ResponseWriter, r *http.Request) {
	h.withUsername(w, r, h.service.Join)
}

// PUT /api/v1/tournaments/{id}/winner
func (h *Handlers) HandleSetWinner(w http.ResponseWriter, r *http.Request) {
	h.withUsername(w, r, h.service.SetWinner)
}

type tournamentAction func(ctx context.Context, tournamentID, username string) (tournaments.Listing, error)

func (h *Handlers) withUsername(w http.ResponseWriter, r *http.Request, action tournamentAction) {
	id, err := apiutil.PathValue(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	var req usernameRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	listing, err := action(r.Context(), id, req.Username)
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, listing); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write tournament response")
	}
}
