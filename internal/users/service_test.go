package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/testutil"
)

func TestRegister(t *testing.T) {
	database := testutil.NewTestDB(t)
	now := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(database, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	user, err := svc.Register(ctx, "  alice ")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Username != "alice" || !user.CreatedAt.Equal(now) || user.TotalBookings != 0 {
		t.Fatalf("user = %+v", user)
	}

	if _, err := svc.Register(ctx, "alice"); !errors.Is(err, models.ErrAlreadyExists) {
		t.Fatalf("duplicate Register error = %v, want ErrAlreadyExists", err)
	}

	for _, raw := range []string{"", "   ", "a-handle-that-is-far-too-long-to-be-accepted"} {
		if _, err := svc.Register(ctx, raw); !errors.Is(err, models.ErrInputInvalid) {
			t.Fatalf("Register(%q) error = %v, want ErrInputInvalid", raw, err)
		}
	}

	got, err := svc.Get(ctx, " alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("Get username = %q", got.Username)
	}
	if _, err := svc.Get(ctx, "bob"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Get(bob) error = %v, want ErrNotFound", err)
	}
}
