package dbgen

import (
	"context"
	"database/sql"
)

const reservationColumns = `id, court_id, client_id, client_name, start_time, end_time, slot_key,
    price_cents, status, paid, created_by, payment_method, reservation_type, notes,
    cancel_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (Reservation, error) {
	var i Reservation
	err := row.Scan(
		&i.ID,
		&i.CourtID,
		&i.ClientID,
		&i.ClientName,
		&i.StartTime,
		&i.EndTime,
		&i.SlotKey,
		&i.PriceCents,
		&i.Status,
		&i.Paid,
		&i.CreatedBy,
		&i.PaymentMethod,
		&i.ReservationType,
		&i.Notes,
		&i.CancelReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryReservations(ctx context.Context, query string, args ...any) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Reservation{}
	for rows.Next() {
		i, err := scanReservation(rows)
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

const createReservation = `-- name: CreateReservation :one
INSERT INTO reservations (
    court_id, client_id, client_name, start_time, end_time, slot_key,
    price_cents, status, paid, created_by, payment_method, reservation_type, notes,
    cancel_reason
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + reservationColumns

type CreateReservationParams struct {
	CourtID         int64          `json:"court_id"`
	ClientID        sql.NullInt64  `json:"client_id"`
	ClientName      string         `json:"client_name"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	SlotKey         string         `json:"slot_key"`
	PriceCents      int64          `json:"price_cents"`
	Status          string         `json:"status"`
	Paid            bool           `json:"paid"`
	CreatedBy       string         `json:"created_by"`
	PaymentMethod   string         `json:"payment_method"`
	ReservationType string         `json:"reservation_type"`
	Notes           string         `json:"notes"`
	CancelReason    sql.NullString `json:"cancel_reason"`
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, createReservation,
		arg.CourtID,
		arg.ClientID,
		arg.ClientName,
		arg.StartTime,
		arg.EndTime,
		arg.SlotKey,
		arg.PriceCents,
		arg.Status,
		arg.Paid,
		arg.CreatedBy,
		arg.PaymentMethod,
		arg.ReservationType,
		arg.Notes,
		arg.CancelReason,
	)
	return scanReservation(row)
}

const getReservation = `-- name: GetReservation :one
SELECT ` + reservationColumns + `
FROM reservations
WHERE id = ?
`

func (q *Queries) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, getReservation, id)
	return scanReservation(row)
}

const listReservations = `-- name: ListReservations :many
SELECT ` + reservationColumns + `
FROM reservations
ORDER BY start_time, id
`

func (q *Queries) ListReservations(ctx context.Context) ([]Reservation, error) {
	return q.queryReservations(ctx, listReservations)
}

const listReservationsBetween = `-- name: ListReservationsBetween :many
SELECT ` + reservationColumns + `
FROM reservations
WHERE start_time >= ? AND start_time < ?
ORDER BY start_time, id
`

type ListReservationsBetweenParams struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (q *Queries) ListReservationsBetween(ctx context.Context, arg ListReservationsBetweenParams) ([]Reservation, error) {
	return q.queryReservations(ctx, listReservationsBetween, arg.StartTime, arg.EndTime)
}

const updateReservation = `-- name: UpdateReservation :one
UPDATE reservations
SET court_id = ?,
    client_id = ?,
    client_name = ?,
    start_time = ?,
    end_time = ?,
    slot_key = ?,
    price_cents = ?,
    status = ?,
    paid = ?,
    payment_method = ?,
    reservation_type = ?,
    notes = ?,
    cancel_reason = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + reservationColumns

type UpdateReservationParams struct {
	CourtID         int64          `json:"court_id"`
	ClientID        sql.NullInt64  `json:"client_id"`
	ClientName      string         `json:"client_name"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	SlotKey         string         `json:"slot_key"`
	PriceCents      int64          `json:"price_cents"`
	Status          string         `json:"status"`
	Paid            bool           `json:"paid"`
	PaymentMethod   string         `json:"payment_method"`
	ReservationType string         `json:"reservation_type"`
	Notes           string         `json:"notes"`
	CancelReason    sql.NullString `json:"cancel_reason"`
	ID              int64          `json:"id"`
}

func (q *Queries) UpdateReservation(ctx context.Context, arg UpdateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, updateReservation,
		arg.CourtID,
		arg.ClientID,
		arg.ClientName,
		arg.StartTime,
		arg.EndTime,
		arg.SlotKey,
		arg.PriceCents,
		arg.Status,
		arg.Paid,
		arg.PaymentMethod,
		arg.ReservationType,
		arg.Notes,
		arg.CancelReason,
		arg.ID,
	)
	return scanReservation(row)
}
