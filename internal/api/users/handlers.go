// internal/api/users/handlers.go
package users

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/api/apiutil"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/users"
)

type Handlers struct {
	service *users.Service
}

func NewHandlers(service *users.Service) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/users", h.HandleRegister)
	mux.HandleFunc("GET /api/v1/users/{username}", h.HandleGet)
}

type registerRequest struct {
	Username string `json:"username"`
}

// POST /api/v1/users
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	user, err := h.service.Register(r.Context(), req.Username)
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, user); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write user response")
	}
}

// GET /api/v1/users/{username}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	username, err := apiutil.PathValue(r, "username")
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	user, err := h.service.Get(r.Context(), username)
	if err != nil {
		apiutil.WriteError(w, r, err, "")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, user); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write user response")
	}
}
