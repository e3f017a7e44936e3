// cmd/tools/dbmigrate/main.go
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/config"
	"github.com/codr1/Courtside/internal/db"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		configPath     = flag.String("config", "", "Path to config file; supplies the database path when -db is empty")
		dbPath         = flag.String("db", "", "Path to SQLite database")
		migrationsPath = flag.String("migrations", "", "Path to migrations directory (defaults to the embedded set)")
		command        = flag.String("command", "", "Command to run (up, down, version, force)")
		forceVersion   = flag.Int("version", -1, "Version to force when -command=force")
	)
	flag.Parse()

	if *command == "" {
		log.Error().Msg("-command is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	path := *dbPath
	if path == "" && *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
		}
		path = cfg.Database.Filename
	}
	if path == "" {
		log.Fatal().Msg("Either -db or -config must be set")
	}

	absDB, err := filepath.Abs(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database path")
	}
	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	m, closeFn, err := openMigrator(absDB, *migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrate instance")
	}
	defer closeFn()

	if err := run(m, *command, *forceVersion); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("Migration command failed")
	}
}

// openMigrator uses the on-disk migrations when a directory is given and the
// set compiled into the binary otherwise.
func openMigrator(absDB, migrationsPath string) (*migrate.Migrate, func(), error) {
	if migrationsPath != "" {
		absMigrations, err := filepath.Abs(migrationsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid migrations path: %w", err)
		}
		if _, err := os.Stat(absMigrations); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("migrations directory does not exist: %s", absMigrations)
		}
		m, err := migrate.New("file://"+absMigrations, "sqlite3://"+absDB)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil
	}

	sqlDB, err := sql.Open("sqlite3", absDB+"?_fk=1")
	if err != nil {
		return nil, nil, err
	}
	m, err := db.NewMigrator(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return m, func() { m.Close() }, nil
}

func run(m *migrate.Migrate, command string, forceVersion int) error {
	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Info().Msg("Successfully ran migrations up")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Info().Msg("Successfully ran migrations down")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current version")
	case "force":
		if forceVersion < 0 {
			return fmt.Errorf("-version is required with -command=force")
		}
		if err := m.Force(forceVersion); err != nil {
			return err
		}
		log.Info().Int("version", forceVersion).Msg("Forced migration version")
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}
