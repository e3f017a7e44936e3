// cmd/tools/staffadd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	authn "github.com/codr1/Courtside/internal/auth"
	"github.com/codr1/Courtside/internal/config"
	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/repository"
	"github.com/codr1/Courtside/internal/schedule"
)

// staffadd creates a local sign-in account. The first admin of a new club
// has to come from here since the staff endpoints need an admin session.
func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		configPath = flag.String("config", "", "Path to config file; supplies the database path when -db is empty")
		dbPath     = flag.String("db", "", "Path to SQLite database")
		name       = flag.String("name", "", "Display name")
		email      = flag.String("email", "", "Sign-in email")
		role       = flag.String("role", string(models.RoleAdmin), "Role (admin or staff)")
	)
	flag.Parse()

	// Read from the environment so the password stays out of shell history.
	password := os.Getenv("STAFF_PASSWORD")

	if *name == "" || *email == "" || password == "" {
		log.Error().Msg("-name, -email and STAFF_PASSWORD are required")
		flag.PrintDefaults()
		os.Exit(1)
	}
	staffRole := models.StaffRole(*role)
	if staffRole != models.RoleAdmin && staffRole != models.RoleStaff {
		log.Fatal().Str("role", *role).Msg("Role must be admin or staff")
	}
	if err := authn.ValidatePassword(password); err != nil {
		log.Fatal().Err(err).Msg("Password rejected")
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

	database, err := db.New(path)
	if err != nil {
		log.Fatal().Err(err).Str("db", path).Msg("Failed to open database")
	}
	defer database.Close()

	hash, err := authn.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repos := repository.New(database, time.UTC, schedule.LocaleEnglish)
	member, err := repos.Staff.Create(ctx, models.Staff{
		Name:         *name,
		Email:        *email,
		PasswordHash: hash,
		Role:         staffRole,
	})
	if errors.Is(err, models.ErrDuplicate) {
		log.Fatal().Str("email", *email).Msg("A staff account with this email already exists")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create staff account")
	}
	log.Info().Int64("staff_id", member.ID).Str("role", string(member.Role)).Msg("Staff account created")
}
