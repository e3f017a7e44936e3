package calendar

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/schedule"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// 2024-03-11 is a Monday.
var testDate = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

var testCourts = []models.Court{
	{ID: 1, Name: "Court A"},
	{ID: 2, Name: "Court B"},
}

func openWeek(start, end int) models.WeeklySchedule {
	weekly := schedule.Defaults(schedule.LocaleEnglish)
	for i := range weekly {
		weekly[i].StartHour = start
		weekly[i].EndHour = end
	}
	return weekly
}

func newTestBuilder(now time.Time) *Builder {
	return NewBuilder(schedule.NewResolver(schedule.LocaleEnglish), fixedClock{now: now}, DefaultStartHour, DefaultEndHour)
}

func reservationAt(id, courtID int64, hour, minute int, status models.ReservationStatus) models.Reservation {
	start := time.Date(2024, 3, 11, hour, minute, 0, 0, time.UTC)
	return models.Reservation{
		ID:         id,
		CourtID:    courtID,
		ClientName: "Ana",
		Start:      start,
		End:        start.Add(time.Hour),
		PriceCents: 2500,
		Status:     status,
	}
}

func mustCell(t *testing.T, grid Grid, courtID int64, hour int) Cell {
	t.Helper()
	cell, ok := grid.Cell(courtID, hour)
	if !ok {
		t.Fatalf("missing cell court=%d hour=%d", courtID, hour)
	}
	return cell
}

func TestBuildGridFreeThenOccupied(t *testing.T) {
	builder := newTestBuilder(testDate.AddDate(0, 0, -3))
	weekly := openWeek(9, 23)

	grid, err := builder.Build(testDate, testCourts, nil, weekly)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, court := range testCourts {
		cell := mustCell(t, grid, court.ID, 10)
		if cell.State != CellFree {
			t.Fatalf("court %d at 10: state %s, want free", court.ID, cell.State)
		}
		if cell.Prefill == nil || cell.Prefill.CourtID != court.ID || cell.Prefill.StartTime != "10:00" || cell.Prefill.Date != "2024-03-11" {
			t.Fatalf("court %d at 10: bad prefill %+v", court.ID, cell.Prefill)
		}
	}
	if cell := mustCell(t, grid, 1, 8); cell.State != CellClosed {
		t.Fatalf("hour before opening: state %s, want closed", cell.State)
	}

	reservations := []models.Reservation{reservationAt(7, 1, 10, 0, models.StatusConfirmed)}
	grid, err = builder.Build(testDate, testCourts, reservations, weekly)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	cellA := mustCell(t, grid, 1, 10)
	if cellA.State != CellOccupied || cellA.Booking == nil || cellA.Booking.ReservationID != 7 {
		t.Fatalf("court A at 10: %+v", cellA)
	}
	if cellA.Booking.PriceCents == nil || *cellA.Booking.PriceCents != 2500 || cellA.Booking.ClientName != "Ana" {
		t.Fatalf("court A booking fields: %+v", cellA.Booking)
	}
	if cellB := mustCell(t, grid, 2, 10); cellB.State != CellFree {
		t.Fatalf("court B at 10: state %s, want free", cellB.State)
	}
}

func TestBuildGridShape(t *testing.T) {
	grid, err := newTestBuilder(testDate).Build(testDate, testCourts, nil, openWeek(8, 23))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(grid.Rows) != 16 {
		t.Fatalf("rows: got %d, want 16", len(grid.Rows))
	}
	if grid.Rows[0].Label != "08:00" || grid.Rows[15].Hour != 23 {
		t.Fatalf("unexpected row bounds %q..%d", grid.Rows[0].Label, grid.Rows[15].Hour)
	}
	if len(grid.Courts) != 2 || grid.Courts[0].Name != "Court A" {
		t.Fatalf("unexpected columns %+v", grid.Courts)
	}
	if grid.Weekday != "Monday" {
		t.Fatalf("weekday: %q", grid.Weekday)
	}
}

func TestBuildGridClosedDayReservationTakesPrecedence(t *testing.T) {
	weekly := openWeek(8, 23)
	weekly[0].Open = false // Monday

	reservations := []models.Reservation{reservationAt(3, 2, 12, 0, models.StatusConfirmed)}
	grid, err := newTestBuilder(testDate.AddDate(0, 0, 1)).Build(testDate, testCourts, reservations, weekly)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, row := range grid.Rows {
		for _, cell := range row.Cells {
			if cell.CourtID == 2 && row.Hour == 12 {
				if cell.State != CellOccupied {
					t.Fatalf("reservation on closed day should render occupied, got %s", cell.State)
				}
				continue
			}
			if cell.State != CellClosed {
				t.Fatalf("court %d hour %d: state %s, want closed", cell.CourtID, row.Hour, cell.State)
			}
			if cell.Prefill != nil {
				t.Fatalf("closed cell must not be interactive")
			}
		}
	}
}

func TestBuildGridIgnoresCancelledAndOtherDays(t *testing.T) {
	reservations := []models.Reservation{
		reservationAt(1, 1, 10, 0, models.StatusCancelled),
		func() models.Reservation {
			r := reservationAt(2, 1, 11, 0, models.StatusConfirmed)
			r.Start = r.Start.AddDate(0, 0, 1)
			r.End = r.End.AddDate(0, 0, 1)
			return r
		}(),
	}
	grid, err := newTestBuilder(testDate).Build(testDate, testCourts, reservations, openWeek(8, 23))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cell := mustCell(t, grid, 1, 10); cell.State != CellFree {
		t.Fatalf("cancelled reservation should leave cell free, got %s", cell.State)
	}
	if cell := mustCell(t, grid, 1, 11); cell.State != CellFree {
		t.Fatalf("next-day reservation should not appear, got %s", cell.State)
	}
}

func TestBuildGridBlockedHasNoPrice(t *testing.T) {
	blocked := reservationAt(4, 1, 15, 0, models.StatusBlocked)
	grid, err := newTestBuilder(testDate).Build(testDate, testCourts, []models.Reservation{blocked}, openWeek(8, 23))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cell := mustCell(t, grid, 1, 15)
	if cell.State != CellOccupied || cell.Booking == nil {
		t.Fatalf("blocked cell: %+v", cell)
	}
	if !cell.Booking.Blocked || cell.Booking.Style != "blocked" {
		t.Fatalf("blocked marker missing: %+v", cell.Booking)
	}
	if cell.Booking.PriceCents != nil || cell.Booking.ClientName != "" {
		t.Fatalf("blocked cell must not show price or client: %+v", cell.Booking)
	}
}

func TestBuildGridDuplicateSlotShowsLowestID(t *testing.T) {
	reservations := []models.Reservation{
		reservationAt(9, 1, 18, 0, models.StatusPending),
		reservationAt(5, 1, 18, 0, models.StatusConfirmed),
	}
	grid, err := newTestBuilder(testDate).Build(testDate, testCourts, reservations, openWeek(8, 23))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cell := mustCell(t, grid, 1, 18)
	if cell.Booking == nil || cell.Booking.ReservationID != 5 {
		t.Fatalf("expected reservation 5, got %+v", cell.Booking)
	}
}

func TestBuildGridHalfHourStartRendersInItsHour(t *testing.T) {
	reservations := []models.Reservation{reservationAt(6, 2, 19, 30, models.StatusConfirmed)}
	grid, err := newTestBuilder(testDate).Build(testDate, testCourts, reservations, openWeek(8, 23))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cell := mustCell(t, grid, 2, 19)
	if cell.State != CellOccupied || cell.Booking.Start != "19:30" {
		t.Fatalf("half-hour booking: %+v", cell)
	}
}

func TestBuildGridIsDeterministic(t *testing.T) {
	builder := newTestBuilder(time.Date(2024, 3, 11, 14, 15, 0, 0, time.UTC))
	reservations := []models.Reservation{reservationAt(1, 1, 10, 0, models.StatusConfirmed)}
	first, err := builder.Build(testDate, testCourts, reservations, openWeek(8, 23))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := builder.Build(testDate, testCourts, reservations, openWeek(8, 23))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := range first.Rows {
		for j := range first.Rows[i].Cells {
			if first.Rows[i].Cells[j].State != second.Rows[i].Cells[j].State {
				t.Fatalf("row %d cell %d differs between builds", i, j)
			}
		}
	}
}

func TestBuildGridRejectsBadRange(t *testing.T) {
	builder := NewBuilder(schedule.NewResolver(schedule.LocaleEnglish), fixedClock{}, 20, 10)
	if _, err := builder.Build(testDate, testCourts, nil, nil); err == nil {
		t.Fatal("expected error for inverted hour range")
	}
}

func TestLiveIndicator(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want *LiveIndicator
	}{
		{"today in range", time.Date(2024, 3, 11, 14, 45, 0, 0, time.UTC), &LiveIndicator{Hour: 14, Minute: 45, Fraction: 0.75}},
		{"today before grid", time.Date(2024, 3, 11, 6, 10, 0, 0, time.UTC), nil},
		{"other day", time.Date(2024, 3, 12, 14, 45, 0, 0, time.UTC), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestBuilder(tt.now).Live(testDate)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected no indicator, got %+v", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Fatalf("Live() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

type fakeScheduler struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]func()
	removed []uuid.UUID
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[uuid.UUID]func())}
}

func (s *fakeScheduler) AddIntervalJob(name string, interval time.Duration, task func()) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.tasks[id] = task
	return id, nil
}

func (s *fakeScheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	s.removed = append(s.removed, id)
	return nil
}

func (s *fakeScheduler) tick() {
	s.mu.Lock()
	tasks := make([]func(), 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	s.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLiveFeedMountTickUnmount(t *testing.T) {
	clock := &steppingClock{now: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)}
	builder := NewBuilder(schedule.NewResolver(schedule.LocaleEnglish), clock, DefaultStartHour, DefaultEndHour)
	sched := newFakeScheduler()
	feed := NewLiveFeed(builder, sched, time.Minute)

	var updates []*LiveIndicator
	unmount, err := feed.Mount(testDate, func(indicator *LiveIndicator) {
		updates = append(updates, indicator)
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if len(updates) != 1 || updates[0] == nil || updates[0].Minute != 0 {
		t.Fatalf("expected immediate indicator, got %+v", updates)
	}

	clock.Advance(30 * time.Minute)
	sched.tick()
	if len(updates) != 2 || updates[1].Fraction != 0.5 {
		t.Fatalf("expected refreshed indicator at half past, got %+v", updates[len(updates)-1])
	}

	unmount()
	unmount()
	if len(sched.removed) != 1 {
		t.Fatalf("expected job removed once, got %d", len(sched.removed))
	}
	sched.tick()
	if len(updates) != 2 {
		t.Fatalf("no updates expected after unmount, got %d", len(updates))
	}
}
