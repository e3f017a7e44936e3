// Package calendar builds the per-court, per-hour booking grid for a day.
package calendar

import (
	"fmt"
	"time"

	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/schedule"
)

const (
	DefaultStartHour = 8
	DefaultEndHour   = 24
	dateLayout       = "2006-01-02"
)

type CellState string

const (
	CellFree     CellState = "free"
	CellOccupied CellState = "occupied"
	CellClosed   CellState = "closed"
)

// Booking is the display data for an occupied cell. Blocked slots carry no price.
type Booking struct {
	ReservationID int64                    `json:"reservationId"`
	ClientName    string                   `json:"clientName,omitempty"`
	PriceCents    *int64                   `json:"priceCents,omitempty"`
	Paid          bool                     `json:"paid"`
	Status        models.ReservationStatus `json:"status"`
	Blocked       bool                     `json:"blocked"`
	Style         string                   `json:"style"`
	Start         string                   `json:"start"`
	End           string                   `json:"end"`
}

// Prefill seeds a new booking started from a free cell.
type Prefill struct {
	CourtID   int64  `json:"courtId"`
	Date      string `json:"date"`
	Hour      int    `json:"hour"`
	StartTime string `json:"startTime"`
}

type Cell struct {
	CourtID int64     `json:"courtId"`
	Hour    int       `json:"hour"`
	State   CellState `json:"state"`
	Booking *Booking  `json:"booking,omitempty"`
	Prefill *Prefill  `json:"prefill,omitempty"`
}

type Row struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

type Column struct {
	CourtID int64  `json:"courtId"`
	Name    string `json:"name"`
}

type Grid struct {
	Date    string         `json:"date"`
	Weekday string         `json:"weekday"`
	Courts  []Column       `json:"courts"`
	Rows    []Row          `json:"rows"`
	Live    *LiveIndicator `json:"live,omitempty"`
}

// Cell returns the cell for courtID at hour.
func (g Grid) Cell(courtID int64, hour int) (Cell, bool) {
	for _, row := range g.Rows {
		if row.Hour != hour {
			continue
		}
		for _, cell := range row.Cells {
			if cell.CourtID == courtID {
				return cell, true
			}
		}
	}
	return Cell{}, false
}

// LiveIndicator marks the current time inside the current hour's row.
type LiveIndicator struct {
	Hour     int     `json:"hour"`
	Minute   int     `json:"minute"`
	Fraction float64 `json:"fraction"`
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type Builder struct {
	Resolver  schedule.Resolver
	Clock     Clock
	StartHour int
	EndHour   int
}

func NewBuilder(resolver schedule.Resolver, clock Clock, startHour, endHour int) *Builder {
	if clock == nil {
		clock = SystemClock
	}
	return &Builder{
		Resolver:  resolver,
		Clock:     clock,
		StartHour: startHour,
		EndHour:   endHour,
	}
}

func (b *Builder) validRange() error {
	if b.StartHour < 0 || b.EndHour > 24 || b.StartHour >= b.EndHour {
		return fmt.Errorf("invalid calendar hour range %d-%d", b.StartHour, b.EndHour)
	}
	return nil
}

type cellKey struct {
	courtID int64
	hour    int
}

// Build produces the grid for date. Courts keep their input order. A cell
// holding an active reservation is occupied even when the schedule says the
// club is closed; if bad data puts two active reservations in one cell the
// lowest id is shown.
func (b *Builder) Build(date time.Time, courts []models.Court, reservations []models.Reservation, weekly models.WeeklySchedule) (Grid, error) {
	if err := b.validRange(); err != nil {
		return Grid{}, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dateLabel := day.Format(dateLayout)

	occupied := make(map[cellKey]models.Reservation)
	for _, reservation := range reservations {
		if !reservation.Active() {
			continue
		}
		start := reservation.Start.In(day.Location())
		if !models.SameDate(day, start) {
			continue
		}
		key := cellKey{courtID: reservation.CourtID, hour: start.Hour()}
		if existing, ok := occupied[key]; ok && existing.ID < reservation.ID {
			continue
		}
		occupied[key] = reservation
	}

	grid := Grid{
		Date:    dateLabel,
		Weekday: b.Resolver.WeekdayLabel(day),
		Courts:  make([]Column, 0, len(courts)),
		Rows:    make([]Row, 0, b.EndHour-b.StartHour),
		Live:    b.Live(day),
	}
	for _, court := range courts {
		grid.Courts = append(grid.Courts, Column{CourtID: court.ID, Name: court.Name})
	}

	for hour := b.StartHour; hour < b.EndHour; hour++ {
		open := b.Resolver.IsOpen(day, hour, weekly)
		row := Row{
			Hour:  hour,
			Label: fmt.Sprintf("%02d:00", hour),
			Cells: make([]Cell, 0, len(courts)),
		}
		for _, court := range courts {
			cell := Cell{CourtID: court.ID, Hour: hour}
			if reservation, ok := occupied[cellKey{courtID: court.ID, hour: hour}]; ok {
				cell.State = CellOccupied
				cell.Booking = bookingFor(reservation, day.Location())
			} else if !open {
				cell.State = CellClosed
			} else {
				cell.State = CellFree
				cell.Prefill = &Prefill{
					CourtID:   court.ID,
					Date:      dateLabel,
					Hour:      hour,
					StartTime: row.Label,
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		grid.Rows = append(grid.Rows, row)
	}

	return grid, nil
}

func bookingFor(reservation models.Reservation, loc *time.Location) *Booking {
	booking := &Booking{
		ReservationID: reservation.ID,
		Paid:          reservation.Paid,
		Status:        reservation.Status,
		Style:         string(reservation.Status),
		Start:         reservation.Start.In(loc).Format("15:04"),
		End:           reservation.End.In(loc).Format("15:04"),
	}
	if reservation.Status == models.StatusBlocked {
		booking.Blocked = true
		return booking
	}
	price := reservation.PriceCents
	booking.PriceCents = &price
	booking.ClientName = reservation.ClientName
	return booking
}

// Live returns the indicator for date, or nil when date is not today or the
// current hour has no row.
func (b *Builder) Live(date time.Time) *LiveIndicator {
	clock := b.Clock
	if clock == nil {
		clock = SystemClock
	}
	now := clock.Now().In(date.Location())
	if !models.SameDate(date, now) {
		return nil
	}
	if now.Hour() < b.StartHour || now.Hour() >= b.EndHour {
		return nil
	}
	return &LiveIndicator{
		Hour:     now.Hour(),
		Minute:   now.Minute(),
		Fraction: float64(now.Minute()) / 60,
	}
}

// ParseDate parses a YYYY-MM-DD calendar date in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return date, nil
}
