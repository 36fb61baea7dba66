package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
app:
  name: pingpong
  port: 8080
database:
  filename: data/test.db
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Booking.OpenHour != 9 || cfg.Booking.CloseHour != 21 {
		t.Fatalf("hours = %d-%d", cfg.Booking.OpenHour, cfg.Booking.CloseHour)
	}
	if cfg.Booking.DailyLimitMinutes != 120 || cfg.Booking.WeeklyLimitBookings != 3 {
		t.Fatalf("limits = %d/%d", cfg.Booking.DailyLimitMinutes, cfg.Booking.WeeklyLimitBookings)
	}
	if cfg.Booking.WeekStart() != time.Sunday {
		t.Fatalf("week start = %s", cfg.Booking.WeekStart())
	}
	if !cfg.Booking.SerializeWritesEnabled() {
		t.Fatalf("serialize writes should default on")
	}
	if cfg.Booking.StoreTimeout != 5*time.Second {
		t.Fatalf("store timeout = %s", cfg.Booking.StoreTimeout)
	}
	if cfg.Booking.Location() != time.Local {
		t.Fatalf("location = %s", cfg.Booking.Location())
	}
	if cfg.Leaderboard.DefaultPeriod != "week" || cfg.Leaderboard.TopN != 10 {
		t.Fatalf("leaderboard = %+v", cfg.Leaderboard)
	}
	if cfg.RateLimit.AttemptCooldown != 2*time.Second || cfg.RateLimit.AttemptMaxPerHour != 30 || cfg.RateLimit.WriteMaxIPPerHour != 300 {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
}

func TestParseBookingOverrides(t *testing.T) {
	data := minimalYAML + `
booking:
  timezone: UTC
  week_starts_on: Monday
  serialize_writes: false
  store_timeout: 2s
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Booking.Location() != time.UTC {
		t.Fatalf("location = %s", cfg.Booking.Location())
	}
	if cfg.Booking.WeekStart() != time.Monday {
		t.Fatalf("week start = %s", cfg.Booking.WeekStart())
	}
	if cfg.Booking.SerializeWritesEnabled() {
		t.Fatalf("serialize writes should be off")
	}
	if cfg.Booking.StoreTimeout != 2*time.Second {
		t.Fatalf("store timeout = %s", cfg.Booking.StoreTimeout)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{name: "timezone", extra: "booking:\n  timezone: Mars/Olympus\n", want: "timezone"},
		{name: "hours", extra: "booking:\n  open_hour: 21\n  close_hour: 9\n", want: "booking hours"},
		{name: "week_start", extra: "booking:\n  week_starts_on: someday\n", want: "week_starts_on"},
		{name: "period", extra: "leaderboard:\n  default_period: decade\n", want: "leaderboard period"},
		{name: "cron", extra: "scheduler:\n  orphan_audit_cron: every hour\n", want: "orphan_audit_cron"},
		{name: "rate_limit", extra: "rate_limit:\n  write_max_ip_per_hour: -1\n", want: "rate limits"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(minimalYAML + test.extra))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("error = %v, want mention of %q", err, test.want)
			}
		})
	}
}

func TestParseRequiresAppName(t *testing.T) {
	if _, err := Parse([]byte("app:\n  port: 8080\ndatabase:\n  filename: x.db\n")); err == nil {
		t.Fatalf("expected error for missing app name")
	}
}

func TestLoadReadsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATABASE_FILENAME", filepath.Join(dir, "override.db"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Filename != filepath.Join(dir, "override.db") {
		t.Fatalf("filename = %q", cfg.Database.Filename)
	}
}
