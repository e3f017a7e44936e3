package dbgen

import (
	"context"
)

const listWeeklySchedule = `-- name: ListWeeklySchedule :many
SELECT day, position, is_open, start_hour, end_hour, updated_at
FROM weekly_schedule
ORDER BY position
`

func (q *Queries) ListWeeklySchedule(ctx context.Context) ([]WeeklySchedule, error) {
	rows, err := q.db.QueryContext(ctx, listWeeklySchedule)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []WeeklySchedule{}
	for rows.Next() {
		var i WeeklySchedule
		if err := rows.Scan(
			&i.Day,
			&i.Position,
			&i.IsOpen,
			&i.StartHour,
			&i.EndHour,
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

const upsertWeeklySchedule = `-- name: UpsertWeeklySchedule :one
INSERT INTO weekly_schedule (day, position, is_open, start_hour, end_hour)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(day) DO UPDATE SET
    position = excluded.position,
    is_open = excluded.is_open,
    start_hour = excluded.start_hour,
    end_hour = excluded.end_hour,
    updated_at = CURRENT_TIMESTAMP
RETURNING day, position, is_open, start_hour, end_hour, updated_at
`

type UpsertWeeklyScheduleParams struct {
	Day       string `json:"day"`
	Position  int64  `json:"position"`
	IsOpen    bool   `json:"is_open"`
	StartHour int64  `json:"start_hour"`
	EndHour   int64  `json:"end_hour"`
}

func (q *Queries) UpsertWeeklySchedule(ctx context.Context, arg UpsertWeeklyScheduleParams) (WeeklySchedule, error) {
	row := q.db.QueryRowContext(ctx, upsertWeeklySchedule,
		arg.Day,
		arg.Position,
		arg.IsOpen,
		arg.StartHour,
		arg.EndHour,
	)
	var i WeeklySchedule
	err := row.Scan(
		&i.Day,
		&i.Position,
		&i.IsOpen,
		&i.StartHour,
		&i.EndHour,
		&i.UpdatedAt,
	)
	return i, err
}
