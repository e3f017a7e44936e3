// Package repository adapts the generated queries to domain models. Each
// collection converts rows to models and maps driver errors to the sentinels
// in package models.
package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/schedule"
)

type Repositories struct {
	Courts       *Courts
	Reservations *Reservations
	Schedule     *Schedule
	Clients      *Clients
	Products     *Products
	Staff        *Staff
}

// New binds every collection to database. Reservation times are read and
// written as wall-clock values in loc.
func New(database *db.DB, loc *time.Location, locale schedule.Locale) *Repositories {
	if loc == nil {
		loc = time.Local
	}
	q := database.Queries
	return &Repositories{
		Courts:       &Courts{q: q},
		Reservations: &Reservations{q: q, loc: loc},
		Schedule:     &Schedule{q: q, locale: locale},
		Clients:      &Clients{q: q, loc: loc},
		Products:     &Products{q: q},
		Staff:        &Staff{q: q},
	}
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

// affected turns a zero row count into ErrNotFound.
func affected(rows int64, err error) error {
	if err != nil {
		return db.MapError(err)
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
