package dbgen

import (
	"context"
)

const createCourt = `-- name: CreateCourt :one
INSERT INTO courts (name, sports, surface, indoor, lighting, start_rounding)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, name, sports, surface, indoor, lighting, start_rounding, created_at, updated_at
`

type CreateCourtParams struct {
	Name          string `json:"name"`
	Sports        string `json:"sports"`
	Surface       string `json:"surface"`
	Indoor        bool   `json:"indoor"`
	Lighting      bool   `json:"lighting"`
	StartRounding string `json:"start_rounding"`
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	row := q.db.QueryRowContext(ctx, createCourt,
		arg.Name,
		arg.Sports,
		arg.Surface,
		arg.Indoor,
		arg.Lighting,
		arg.StartRounding,
	)
	var i Court
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Sports,
		&i.Surface,
		&i.Indoor,
		&i.Lighting,
		&i.StartRounding,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteCourt = `-- name: DeleteCourt :execrows
DELETE FROM courts WHERE id = ?
`

func (q *Queries) DeleteCourt(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCourt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getCourt = `-- name: GetCourt :one
SELECT id, name, sports, surface, indoor, lighting, start_rounding, created_at, updated_at
FROM courts
WHERE id = ?
`

func (q *Queries) GetCourt(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, getCourt, id)
	var i Court
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Sports,
		&i.Surface,
		&i.Indoor,
		&i.Lighting,
		&i.StartRounding,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listCourts = `-- name: ListCourts :many
SELECT id, name, sports, surface, indoor, lighting, start_rounding, created_at, updated_at
FROM courts
ORDER BY id
`

func (q *Queries) ListCourts(ctx context.Context) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, listCourts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Court{}
	for rows.Next() {
		var i Court
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Sports,
			&i.Surface,
			&i.Indoor,
			&i.Lighting,
			&i.StartRounding,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
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

const updateCourt = `-- name: UpdateCourt :one
UPDATE courts
SET name = ?,
    sports = ?,
    surface = ?,
    indoor = ?,
    lighting = ?,
    start_rounding = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING id, name, sports, surface, indoor, lighting, start_rounding, created_at, updated_at
`

type UpdateCourtParams struct {
	Name          string `json:"name"`
	Sports        string `json:"sports"`
	Surface       string `json:"surface"`
	Indoor        bool   `json:"indoor"`
	Lighting      bool   `json:"lighting"`
	StartRounding string `json:"start_rounding"`
	ID            int64  `json:"id"`
}

func (q *Queries) UpdateCourt(ctx context.Context, arg UpdateCourtParams) (Court, error) {
	row := q.db.QueryRowContext(ctx, updateCourt,
		arg.Name,
		arg.Sports,
		arg.Surface,
		arg.Indoor,
		arg.Lighting,
		arg.StartRounding,
		arg.ID,
	)
	var i Court
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Sports,
		&i.Surface,
		&i.Indoor,
		&i.Lighting,
		&i.StartRounding,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
