// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	// IANA name, or "Local" for the host's zone
	Timezone            string        `yaml:"timezone"`
	OpenHour            int           `yaml:"open_hour"`
	CloseHour           int           `yaml:"close_hour"`
	DailyLimitMinutes   int           `yaml:"daily_limit_minutes"`
	WeeklyLimitBookings int           `yaml:"weekly_limit_bookings"`
	WeekStartsOn        string        `yaml:"week_starts_on"`
	SerializeWrites     *bool         `yaml:"serialize_writes"`
	StoreTimeout        time.Duration `yaml:"store_timeout"`

	location *time.Location
}

type LeaderboardConfig struct {
	DefaultPeriod string `yaml:"default_period"`
	TopN          int    `yaml:"top_n"`
}

type SchedulerConfig struct {
	Enabled         bool   `yaml:"enabled"`
	OrphanAuditCron string `yaml:"orphan_audit_cron"`
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	TrustProxy        bool          `yaml:"trust_proxy"`
	AttemptCooldown   time.Duration `yaml:"attempt_cooldown"`
	AttemptMaxPerHour int           `yaml:"attempt_max_per_hour"`
	WriteMaxIPPerHour int           `yaml:"write_max_ip_per_hour"`
}

type Config struct {
	App struct {
		Name            string        `yaml:"name"`
		Environment     string        `yaml:"environment"`
		Port            int           `yaml:"port"`
		BaseURL         string        `yaml:"base_url"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Booking BookingConfig `yaml:"booking"`

	Leaderboard LeaderboardConfig `yaml:"leaderboard"`

	Scheduler SchedulerConfig `yaml:"scheduler"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Features struct {
		EnableDebug bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies environment overrides and
// defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if filename := os.Getenv("DATABASE_FILENAME"); filename != "" {
		cfg.Database.Filename = filename
	}
	if tz := os.Getenv("BOOKING_TIMEZONE"); tz != "" {
		cfg.Booking.Timezone = tz
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.ShutdownTimeout == 0 {
		c.App.ShutdownTimeout = 30 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}

	b := &c.Booking
	if b.Timezone == "" {
		b.Timezone = "Local"
	}
	if b.OpenHour == 0 && b.CloseHour == 0 {
		b.OpenHour, b.CloseHour = 9, 21
	}
	if b.DailyLimitMinutes == 0 {
		b.DailyLimitMinutes = 120
	}
	if b.WeeklyLimitBookings == 0 {
		b.WeeklyLimitBookings = 3
	}
	if b.WeekStartsOn == "" {
		b.WeekStartsOn = "sunday"
	}
	if b.SerializeWrites == nil {
		serialize := true
		b.SerializeWrites = &serialize
	}
	if b.StoreTimeout == 0 {
		b.StoreTimeout = 5 * time.Second
	}

	if c.Leaderboard.DefaultPeriod == "" {
		c.Leaderboard.DefaultPeriod = "week"
	}
	if c.Leaderboard.TopN == 0 {
		c.Leaderboard.TopN = 10
	}
	if c.RateLimit.AttemptCooldown == 0 {
		c.RateLimit.AttemptCooldown = 2 * time.Second
	}
	if c.RateLimit.AttemptMaxPerHour == 0 {
		c.RateLimit.AttemptMaxPerHour = 30
	}
	if c.RateLimit.WriteMaxIPPerHour == 0 {
		c.RateLimit.WriteMaxIPPerHour = 300
	}
	if c.Scheduler.OrphanAuditCron == "" {
		c.Scheduler.OrphanAuditCron = "0 * * * *"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if err := c.Booking.validate(); err != nil {
		return err
	}

	switch c.Leaderboard.DefaultPeriod {
	case "week", "month", "quarter", "year":
	default:
		return fmt.Errorf("unsupported leaderboard period: %s", c.Leaderboard.DefaultPeriod)
	}
	if c.Leaderboard.TopN < 0 {
		return fmt.Errorf("leaderboard top_n must be 0 or greater")
	}

	if c.RateLimit.AttemptCooldown < 0 || c.RateLimit.AttemptMaxPerHour < 0 || c.RateLimit.WriteMaxIPPerHour < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	if _, err := cron.ParseStandard(c.Scheduler.OrphanAuditCron); err != nil {
		return fmt.Errorf("invalid orphan_audit_cron %q: %w", c.Scheduler.OrphanAuditCron, err)
	}

	return nil
}

func (b *BookingConfig) validate() error {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", b.Timezone, err)
	}
	b.location = loc

	if b.OpenHour < 0 || b.CloseHour > 24 || b.OpenHour >= b.CloseHour {
		return fmt.Errorf("booking hours %d-%d are invalid", b.OpenHour, b.CloseHour)
	}
	if b.DailyLimitMinutes <= 0 {
		return fmt.Errorf("daily_limit_minutes must be greater than 0")
	}
	if b.WeeklyLimitBookings <= 0 {
		return fmt.Errorf("weekly_limit_bookings must be greater than 0")
	}
	if _, ok := weekdays[strings.ToLower(b.WeekStartsOn)]; !ok {
		return fmt.Errorf("unknown week_starts_on %q", b.WeekStartsOn)
	}
	if b.StoreTimeout < 0 {
		return fmt.Errorf("store_timeout must not be negative")
	}
	return nil
}

// Location returns the zone calendar dates are interpreted in.
func (b BookingConfig) Location() *time.Location {
	if b.location == nil {
		return time.Local
	}
	return b.location
}

func (b BookingConfig) WeekStart() time.Weekday {
	return weekdays[strings.ToLower(b.WeekStartsOn)]
}

func (b BookingConfig) SerializeWritesEnabled() bool {
	return b.SerializeWrites == nil || *b.SerializeWrites
}
