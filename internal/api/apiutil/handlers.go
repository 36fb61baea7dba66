package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

const maxBodyBytes = 1 << 20

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e FieldError) Unwrap() error {
	return models.ErrInputInvalid
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return FieldError{Field: "body", Reason: "is required"}
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", models.ErrInputInvalid, err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: invalid JSON body", models.ErrInputInvalid)
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// StatusFor maps a domain error onto an HTTP status.
func StatusFor(err error) int {
	var herr HandlerError
	switch {
	case errors.As(err, &herr):
		return herr.Status
	case errors.Is(err, models.ErrPartialWrite):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrInputInvalid):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrAlreadyExists),
		errors.Is(err, models.ErrAlreadyJoined):
		return http.StatusConflict
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// WriteError logs err and writes it as a JSON error body. Server-side failures
// get a generic message; client errors carry the error text.
func WriteError(w http.ResponseWriter, r *http.Request, err error, reason string) {
	logger := log.Ctx(r.Context())
	status := StatusFor(err)

	message := err.Error()
	switch status {
	case http.StatusNotImplemented:
		logger.Info().Err(err).Str("reason", reason).Msg("Unsupported request")
	case http.StatusServiceUnavailable:
		logger.Error().Err(err).Int("status", status).Str("reason", reason).Msg("Request failed")
		message = "Storage is unavailable, please try again"
	case http.StatusInternalServerError:
		logger.Error().Err(err).Int("status", status).Str("reason", reason).Msg("Request failed")
		message = "Internal Server Error"
	default:
		logger.Debug().Err(err).Int("status", status).Str("reason", reason).Msg("Request rejected")
	}

	if writeErr := WriteJSON(w, status, ErrorResponse{Error: message, Reason: reason}); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}
