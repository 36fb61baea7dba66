// cmd/dbtools/migrate/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/config"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/db"
)

func main() {
	var (
		configPath     = flag.String("config", "config/app.yaml", "Path to the application config")
		dbPath         = flag.String("db", "", "Path to SQLite database (overrides the config)")
		migrationsPath = flag.String("migrations", "", "Path to a migrations directory (defaults to the embedded migrations)")
		command        = flag.String("command", "", "Command to run (up, down, version, steps N, force V)")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *command == "" {
		flag.Usage()
		os.Exit(1)
	}

	path := *dbPath
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config_path", *configPath).Msg("Failed to load configuration")
		}
		path = cfg.Database.Filename
	}

	m, err := newMigrator(path, *migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration init failed")
	}
	defer m.Close()

	if err := run(m, *command, flag.Args()); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("Migration failed")
	}
}

func newMigrator(dbPath, migrationsPath string) (*migrate.Migrate, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	if migrationsPath != "" {
		absMigrations, err := filepath.Abs(migrationsPath)
		if err != nil {
			return nil, fmt.Errorf("invalid migrations path: %w", err)
		}
		return migrate.New("file://"+absMigrations, "sqlite3://"+dbPath)
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return db.NewMigrator(sqlDB)
}

func run(m *migrate.Migrate, command string, args []string) error {
	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "steps", "force":
		if len(args) != 1 {
			return fmt.Errorf("%s needs exactly one numeric argument", command)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid argument %q: %w", args[0], err)
		}
		if command == "force" {
			return m.Force(n)
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get version: %w", err)
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migration complete")
	return nil
}
