package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
	"github.com/codr1/Courtside/internal/models"
)

type Courts struct {
	q *dbgen.Queries
}

func courtFromRow(row dbgen.Court) (models.Court, error) {
	sports := []string{}
	if row.Sports != "" {
		if err := json.Unmarshal([]byte(row.Sports), &sports); err != nil {
			return models.Court{}, fmt.Errorf("decode sports for court %d: %w", row.ID, err)
		}
	}
	rounding, err := models.ParseStartRounding(row.StartRounding)
	if err != nil {
		return models.Court{}, fmt.Errorf("court %d: %w", row.ID, err)
	}
	return models.Court{
		ID:            row.ID,
		Name:          row.Name,
		Sports:        sports,
		Surface:       row.Surface,
		Indoor:        row.Indoor,
		Lighting:      row.Lighting,
		StartRounding: rounding,
	}, nil
}

func encodeSports(sports []string) (string, error) {
	if sports == nil {
		sports = []string{}
	}
	encoded, err := json.Marshal(sports)
	if err != nil {
		return "", fmt.Errorf("encode sports: %w", err)
	}
	return string(encoded), nil
}

func (c *Courts) List(ctx context.Context) ([]models.Court, error) {
	rows, err := c.q.ListCourts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	courts := make([]models.Court, 0, len(rows))
	for _, row := range rows {
		court, err := courtFromRow(row)
		if err != nil {
			return nil, err
		}
		courts = append(courts, court)
	}
	return courts, nil
}

// GetCourt returns models.ErrNotFound when id is unknown.
func (c *Courts) GetCourt(ctx context.Context, id int64) (models.Court, error) {
	row, err := c.q.GetCourt(ctx, id)
	if err != nil {
		return models.Court{}, db.MapError(err)
	}
	return courtFromRow(row)
}

func (c *Courts) Create(ctx context.Context, court models.Court) (models.Court, error) {
	if err := court.Validate(); err != nil {
		return models.Court{}, err
	}
	sports, err := encodeSports(court.Sports)
	if err != nil {
		return models.Court{}, err
	}
	rounding, _ := models.ParseStartRounding(string(court.StartRounding))
	row, err := c.q.CreateCourt(ctx, dbgen.CreateCourtParams{
		Name:          court.Name,
		Sports:        sports,
		Surface:       court.Surface,
		Indoor:        court.Indoor,
		Lighting:      court.Lighting,
		StartRounding: string(rounding),
	})
	if err != nil {
		return models.Court{}, fmt.Errorf("create court: %w", err)
	}
	return courtFromRow(row)
}

func (c *Courts) Update(ctx context.Context, court models.Court) (models.Court, error) {
	if err := court.Validate(); err != nil {
		return models.Court{}, err
	}
	sports, err := encodeSports(court.Sports)
	if err != nil {
		return models.Court{}, err
	}
	rounding, _ := models.ParseStartRounding(string(court.StartRounding))
	row, err := c.q.UpdateCourt(ctx, dbgen.UpdateCourtParams{
		Name:          court.Name,
		Sports:        sports,
		Surface:       court.Surface,
		Indoor:        court.Indoor,
		Lighting:      court.Lighting,
		StartRounding: string(rounding),
		ID:            court.ID,
	})
	if err != nil {
		return models.Court{}, db.MapError(err)
	}
	return courtFromRow(row)
}

// Delete fails with models.ErrInUse while reservations reference the court.
func (c *Courts) Delete(ctx context.Context, id int64) error {
	return affected(c.q.DeleteCourt(ctx, id))
}
