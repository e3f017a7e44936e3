package dbgen

import (
	"context"
	"database/sql"
)

const clientColumns = `id, name, name_key, phone, email, total_bookings, total_spent_cents,
    last_booking_at, created_at, updated_at`

func scanClient(row rowScanner) (Client, error) {
	var i Client
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.NameKey,
		&i.Phone,
		&i.Email,
		&i.TotalBookings,
		&i.TotalSpentCents,
		&i.LastBookingAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createClient = `-- name: CreateClient :one
INSERT INTO clients (name, name_key, phone, email)
VALUES (?, ?, ?, ?)
RETURNING ` + clientColumns

type CreateClientParams struct {
	Name    string         `json:"name"`
	NameKey string         `json:"name_key"`
	Phone   sql.NullString `json:"phone"`
	Email   sql.NullString `json:"email"`
}

func (q *Queries) CreateClient(ctx context.Context, arg CreateClientParams) (Client, error) {
	row := q.db.QueryRowContext(ctx, createClient,
		arg.Name,
		arg.NameKey,
		arg.Phone,
		arg.Email,
	)
	return scanClient(row)
}

const getClient = `-- name: GetClient :one
SELECT ` + clientColumns + `
FROM clients
WHERE id = ?
`

func (q *Queries) GetClient(ctx context.Context, id int64) (Client, error) {
	row := q.db.QueryRowContext(ctx, getClient, id)
	return scanClient(row)
}

const getClientByNameKey = `-- name: GetClientByNameKey :one
SELECT ` + clientColumns + `
FROM clients
WHERE name_key = ?
`

func (q *Queries) GetClientByNameKey(ctx context.Context, nameKey string) (Client, error) {
	row := q.db.QueryRowContext(ctx, getClientByNameKey, nameKey)
	return scanClient(row)
}

const listClients = `-- name: ListClients :many
SELECT ` + clientColumns + `
FROM clients
ORDER BY name_key
`

func (q *Queries) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := q.db.QueryContext(ctx, listClients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Client{}
	for rows.Next() {
		i, err := scanClient(rows)
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

const updateClient = `-- name: UpdateClient :one
UPDATE clients
SET name = ?,
    name_key = ?,
    phone = ?,
    email = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + clientColumns

type UpdateClientParams struct {
	Name    string         `json:"name"`
	NameKey string         `json:"name_key"`
	Phone   sql.NullString `json:"phone"`
	Email   sql.NullString `json:"email"`
	ID      int64          `json:"id"`
}

func (q *Queries) UpdateClient(ctx context.Context, arg UpdateClientParams) (Client, error) {
	row := q.db.QueryRowContext(ctx, updateClient,
		arg.Name,
		arg.NameKey,
		arg.Phone,
		arg.Email,
		arg.ID,
	)
	return scanClient(row)
}

const updateClientStats = `-- name: UpdateClientStats :exec
UPDATE clients
SET total_bookings = ?,
    total_spent_cents = ?,
    last_booking_at = ?
WHERE id = ?
`

type UpdateClientStatsParams struct {
	TotalBookings   int64          `json:"total_bookings"`
	TotalSpentCents int64          `json:"total_spent_cents"`
	LastBookingAt   sql.NullString `json:"last_booking_at"`
	ID              int64          `json:"id"`
}

func (q *Queries) UpdateClientStats(ctx context.Context, arg UpdateClientStatsParams) error {
	_, err := q.db.ExecContext(ctx, updateClientStats,
		arg.TotalBookings,
		arg.TotalSpentCents,
		arg.LastBookingAt,
		arg.ID,
	)
	return err
}

const deleteClient = `-- name: DeleteClient :execrows
DELETE FROM clients WHERE id = ?
`

func (q *Queries) DeleteClient(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteClient, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
