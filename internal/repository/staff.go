package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
	"github.com/codr1/Courtside/internal/models"
)

type Staff struct {
	q *dbgen.Queries
}

func staffFromRow(row dbgen.Staff) models.Staff {
	return models.Staff{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         models.StaffRole(row.Role),
	}
}

func (s *Staff) List(ctx context.Context) ([]models.Staff, error) {
	rows, err := s.q.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	staff := make([]models.Staff, 0, len(rows))
	for _, row := range rows {
		staff = append(staff, staffFromRow(row))
	}
	return staff, nil
}

func (s *Staff) Get(ctx context.Context, id int64) (models.Staff, error) {
	row, err := s.q.GetStaff(ctx, id)
	if err != nil {
		return models.Staff{}, db.MapError(err)
	}
	return staffFromRow(row), nil
}

// GetByEmail matches the address case-insensitively.
func (s *Staff) GetByEmail(ctx context.Context, email string) (models.Staff, error) {
	row, err := s.q.GetStaffByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return models.Staff{}, db.MapError(err)
	}
	return staffFromRow(row), nil
}

// Create stores a member whose password is already hashed.
func (s *Staff) Create(ctx context.Context, member models.Staff) (models.Staff, error) {
	role := member.Role
	if role == "" {
		role = models.RoleStaff
	}
	row, err := s.q.CreateStaff(ctx, dbgen.CreateStaffParams{
		Name:         strings.TrimSpace(member.Name),
		Email:        strings.TrimSpace(member.Email),
		PasswordHash: member.PasswordHash,
		Role:         string(role),
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.Staff{}, errors.Join(models.ErrDuplicate, err)
		}
		return models.Staff{}, fmt.Errorf("create staff: %w", err)
	}
	return staffFromRow(row), nil
}

func (s *Staff) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return affected(s.q.UpdateStaffPassword(ctx, dbgen.UpdateStaffPasswordParams{
		PasswordHash: passwordHash,
		ID:           id,
	}))
}

func (s *Staff) Delete(ctx context.Context, id int64) error {
	return affected(s.q.DeleteStaff(ctx, id))
}
