package dbgen

import (
	"context"
)

const staffColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanStaff(row rowScanner) (Staff, error) {
	var i Staff
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.PasswordHash,
		&i.Role,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createStaff = `-- name: CreateStaff :one
INSERT INTO staff (name, email, password_hash, role)
VALUES (?, ?, ?, ?)
RETURNING ` + staffColumns

type CreateStaffParams struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	row := q.db.QueryRowContext(ctx, createStaff,
		arg.Name,
		arg.Email,
		arg.PasswordHash,
		arg.Role,
	)
	return scanStaff(row)
}

const getStaff = `-- name: GetStaff :one
SELECT ` + staffColumns + `
FROM staff
WHERE id = ?
`

func (q *Queries) GetStaff(ctx context.Context, id int64) (Staff, error) {
	row := q.db.QueryRowContext(ctx, getStaff, id)
	return scanStaff(row)
}

const getStaffByEmail = `-- name: GetStaffByEmail :one
SELECT ` + staffColumns + `
FROM staff
WHERE email = ?
`

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	row := q.db.QueryRowContext(ctx, getStaffByEmail, email)
	return scanStaff(row)
}

const listStaff = `-- name: ListStaff :many
SELECT ` + staffColumns + `
FROM staff
ORDER BY name
`

func (q *Queries) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := q.db.QueryContext(ctx, listStaff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Staff{}
	for rows.Next() {
		i, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateStaffPassword = `-- name: UpdateStaffPassword :execrows
UPDATE staff
SET password_hash = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type UpdateStaffPasswordParams struct {
	PasswordHash string `json:"password_hash"`
	ID           int64  `json:"id"`
}

func (q *Queries) UpdateStaffPassword(ctx context.Context, arg UpdateStaffPasswordParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateStaffPassword, arg.PasswordHash, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteStaff = `-- name: DeleteStaff :execrows
DELETE FROM staff WHERE id = ?
`

func (q *Queries) DeleteStaff(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStaff, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
