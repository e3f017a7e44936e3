package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedCourt inserts a court with the given start rounding and returns its id.
func SeedCourt(t *testing.T, database *db.DB, name, rounding string) int64 {
	t.Helper()

	if rounding == "" {
		rounding = "none"
	}
	court, err := database.Queries.CreateCourt(context.Background(), dbgen.CreateCourtParams{
		Name:          name,
		Sports:        `["padel"]`,
		StartRounding: rounding,
	})
	if err != nil {
		t.Fatalf("seed court %q: %v", name, err)
	}
	return court.ID
}

// SeedStaff inserts a staff member with an already hashed password.
func SeedStaff(t *testing.T, database *db.DB, name, email, passwordHash, role string) int64 {
	t.Helper()

	staff, err := database.Queries.CreateStaff(context.Background(), dbgen.CreateStaffParams{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed staff %q: %v", email, err)
	}
	return staff.ID
}
