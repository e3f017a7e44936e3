package repository

import (
	"context"
	"fmt"

	dbgen "github.com/codr1/Courtside/internal/db/generated"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/schedule"
)

// Schedule keys weekly hours by the club locale's weekday labels.
type Schedule struct {
	q      *dbgen.Queries
	locale schedule.Locale
}

func (s *Schedule) position(day string) (int64, bool) {
	for i, label := range s.locale.Labels() {
		if label == day {
			return int64(i), true
		}
	}
	return 0, false
}

// Weekly returns the stored schedule, or the locale defaults when nothing
// has been saved yet. Days missing from a partial table stay missing and
// therefore read as closed.
func (s *Schedule) Weekly(ctx context.Context) (models.WeeklySchedule, error) {
	rows, err := s.q.ListWeeklySchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("list weekly schedule: %w", err)
	}
	if len(rows) == 0 {
		return schedule.Defaults(s.locale), nil
	}
	weekly := make(models.WeeklySchedule, 0, len(rows))
	for _, row := range rows {
		weekly = append(weekly, models.DaySchedule{
			Day:       row.Day,
			Open:      row.IsOpen,
			StartHour: int(row.StartHour),
			EndHour:   int(row.EndHour),
		})
	}
	return weekly, nil
}

// Save upserts one day. The first save of any day seeds the remaining days
// from the defaults so a partial edit does not close the rest of the week.
func (s *Schedule) Save(ctx context.Context, day models.DaySchedule) (models.DaySchedule, error) {
	if err := day.Validate(); err != nil {
		return models.DaySchedule{}, err
	}
	if _, ok := s.position(day.Day); !ok {
		return models.DaySchedule{}, fmt.Errorf("unknown weekday %q for locale %s", day.Day, s.locale)
	}

	existing, err := s.q.ListWeeklySchedule(ctx)
	if err != nil {
		return models.DaySchedule{}, fmt.Errorf("list weekly schedule: %w", err)
	}
	if len(existing) == 0 {
		for _, seed := range schedule.Defaults(s.locale) {
			if seed.Day == day.Day {
				continue
			}
			if _, err := s.upsert(ctx, seed); err != nil {
				return models.DaySchedule{}, err
			}
		}
	}
	return s.upsert(ctx, day)
}

func (s *Schedule) upsert(ctx context.Context, day models.DaySchedule) (models.DaySchedule, error) {
	position, _ := s.position(day.Day)
	start, end := day.StartHour, day.EndHour
	if !day.Open && start >= end {
		start, end = 0, 0
	}
	row, err := s.q.UpsertWeeklySchedule(ctx, dbgen.UpsertWeeklyScheduleParams{
		Day:       day.Day,
		Position:  position,
		IsOpen:    day.Open,
		StartHour: int64(start),
		EndHour:   int64(end),
	})
	if err != nil {
		return models.DaySchedule{}, fmt.Errorf("save schedule for %s: %w", day.Day, err)
	}
	return models.DaySchedule{
		Day:       row.Day,
		Open:      row.IsOpen,
		StartHour: int(row.StartHour),
		EndHour:   int(row.EndHour),
	}, nil
}

// Delete clears a day's hours so it reads as closed. A closed row is stored
// rather than removing the entry, since an empty table means the defaults.
func (s *Schedule) Delete(ctx context.Context, day string) error {
	if _, err := s.Save(ctx, models.DaySchedule{Day: day, Open: false}); err != nil {
		return fmt.Errorf("delete schedule for %s: %w", day, err)
	}
	return nil
}
