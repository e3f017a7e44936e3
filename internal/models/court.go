// internal/models/court.go
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSlotTaken is returned when an active reservation already holds the court slot.
	ErrSlotTaken = errors.New("court slot already taken")
	// ErrInUse is returned when a record cannot be deleted because others reference it.
	ErrInUse = errors.New("record is referenced by other records")
	// ErrDuplicate is returned when a unique name or email is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// StartRounding controls how booking start times are aligned for a court.
type StartRounding string

const (
	RoundingNone     StartRounding = "none"
	RoundingHour     StartRounding = "hour"
	RoundingHalfHour StartRounding = "half_hour"
)

func ParseStartRounding(raw string) (StartRounding, error) {
	switch StartRounding(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoundingNone:
		return RoundingNone, nil
	case RoundingHour:
		return RoundingHour, nil
	case RoundingHalfHour:
		return RoundingHalfHour, nil
	}
	return "", fmt.Errorf("start rounding must be one of none, hour, half_hour")
}

// Apply floors t to the court's rounding granularity, keeping wall-clock
// semantics in t's location.
func (r StartRounding) Apply(t time.Time) time.Time {
	switch r {
	case RoundingHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case RoundingHalfHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), (t.Minute()/30)*30, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	}
}

type Court struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Sports        []string      `json:"sports"`
	Surface       string        `json:"surface"`
	Indoor        bool          `json:"indoor"`
	Lighting      bool          `json:"lighting"`
	StartRounding StartRounding `json:"startRounding"`
}

func (c Court) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("court name is required")
	}
	if _, err := ParseStartRounding(string(c.StartRounding)); err != nil {
		return err
	}
	return nil
}
