package testutil

import (
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

func newUser(username string) models.User {
	return models.NewUser(username, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
