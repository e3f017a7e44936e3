package db

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/codr1/Courtside/internal/models"
)

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err is a SQLite FOREIGN KEY failure.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// MapError translates driver errors into model sentinels, wrapping the original.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return models.ErrNotFound
	case IsUniqueViolation(err):
		return errors.Join(models.ErrSlotTaken, err)
	case IsForeignKeyViolation(err):
		return errors.Join(models.ErrInUse, err)
	}
	return err
}
