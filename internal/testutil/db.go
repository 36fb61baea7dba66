package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/db"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
// Calendar values are read back in UTC.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()
	return NewTestDBIn(t, time.UTC)
}

// NewTestDBIn is NewTestDB with calendar values read back in loc.
func NewTestDBIn(t *testing.T, loc *time.Location) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath, loc)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// MustRegister inserts a user or fails the test.
func MustRegister(t *testing.T, database *db.DB, usernames ...string) {
	t.Helper()

	for _, username := range usernames {
		if err := database.CreateUser(t.Context(), newUser(username)); err != nil {
			t.Fatalf("register %s: %v", username, err)
		}
	}
}
