package models

import "fmt"

// DaySchedule is the opening window for one weekday label. Hours are local
// wall-clock hours; EndHour is exclusive.
type DaySchedule struct {
	Day       string `json:"day"`
	Open      bool   `json:"open"`
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
}

func (d DaySchedule) Validate() error {
	if d.Day == "" {
		return fmt.Errorf("day label is required")
	}
	if !d.Open {
		return nil
	}
	if d.StartHour < 0 || d.EndHour > 24 {
		return fmt.Errorf("hours for %s must be between 0 and 24", d.Day)
	}
	if d.StartHour >= d.EndHour {
		return fmt.Errorf("start hour must be before end hour for %s", d.Day)
	}
	return nil
}

// WeeklySchedule holds one entry per weekday label.
type WeeklySchedule []DaySchedule

// Lookup returns the entry whose label matches day exactly.
func (w WeeklySchedule) Lookup(day string) (DaySchedule, bool) {
	for _, entry := range w {
		if entry.Day == day {
			return entry, true
		}
	}
	return DaySchedule{}, false
}
