package apiutil

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

func ParsePositiveIntField(raw string, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

// ParseDurationField accepts 30 or 60, defaulting to 30 when raw is empty.
func ParseDurationField(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return models.Duration30, nil
	}
	value, err := ParsePositiveIntField(raw, "duration")
	if err != nil {
		return 0, err
	}
	if !models.ValidDuration(value) {
		return 0, FieldError{Field: "duration", Reason: "must be 30 or 60"}
	}
	return value, nil
}

// ParseDateField parses a YYYY-MM-DD calendar date in loc.
func ParseDateField(raw string, field string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, FieldError{Field: field, Reason: "is required"}
	}
	date, err := models.ParseDate(raw, loc)
	if err != nil {
		return time.Time{}, FieldError{Field: field, Reason: "must be a YYYY-MM-DD date"}
	}
	return date, nil
}

// ParseTimeField parses an HH:MM time of day.
func ParseTimeField(raw string, field string) (*models.TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, FieldError{Field: field, Reason: "is required"}
	}
	tod, err := models.ParseTimeOfDay(raw)
	if err != nil {
		return nil, FieldError{Field: field, Reason: "must be an HH:MM time"}
	}
	return &tod, nil
}

// PathValue returns the trimmed path wildcard or a FieldError when it is empty.
func PathValue(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		return "", FieldError{Field: name, Reason: "is required"}
	}
	return value, nil
}
