package calendar

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	cal "github.com/codr1/Courtside/internal/calendar"
	"github.com/codr1/Courtside/internal/repository"
	bookings "github.com/codr1/Courtside/internal/reservations"
	"github.com/codr1/Courtside/internal/schedule"
	"github.com/codr1/Courtside/internal/testutil"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeScheduler struct {
	mu      sync.Mutex
	removed int
}

func (s *fakeScheduler) AddIntervalJob(name string, interval time.Duration, task func()) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (s *fakeScheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed++
	return nil
}

func (s *fakeScheduler) removedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

var now = time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

func setupCalendarTest(t *testing.T) (*bookings.Gateway, int64, *fakeScheduler) {
	t.Helper()

	database := testutil.NewTestDB(t)
	courtID := testutil.SeedCourt(t, database, "Court 1", "none")
	testutil.SeedCourt(t, database, "Court 2", "none")
	repos := repository.New(database, time.UTC, schedule.LocaleEnglish)
	gateway := bookings.NewGateway(repos.Reservations, repos.Courts, bookings.WithLocation(time.UTC))

	builder := cal.NewBuilder(schedule.NewResolver(schedule.LocaleEnglish), fixedClock{now: now}, cal.DefaultStartHour, cal.DefaultEndHour)
	scheduler := &fakeScheduler{}

	deps = Deps{}
	depsOnce = sync.Once{}
	InitHandlers(Deps{
		Builder:      builder,
		Live:         cal.NewLiveFeed(builder, scheduler, time.Minute),
		Courts:       repos.Courts,
		Schedule:     repos.Schedule,
		Reservations: gateway,
	})

	t.Cleanup(func() {
		deps = Deps{}
		depsOnce = sync.Once{}
	})

	return gateway, courtID, scheduler
}

func TestHandleCalendarJSON(t *testing.T) {
	gateway, courtID, _ := setupCalendarTest(t)

	price := int64(2000)
	if _, err := gateway.Create(context.Background(), bookings.Input{
		CourtID:         courtID,
		Date:            "2025-03-10",
		StartTime:       "19:00",
		DurationMinutes: 60,
		ClientName:      "Ana",
		PriceCents:      &price,
	}); err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar?date=2025-03-10", nil)
	recorder := httptest.NewRecorder()
	HandleCalendar(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var grid cal.Grid
	if err := json.NewDecoder(recorder.Body).Decode(&grid); err != nil {
		t.Fatalf("decode grid: %v", err)
	}
	if len(grid.Courts) != 2 {
		t.Fatalf("expected 2 courts, got %d", len(grid.Courts))
	}
	cell, ok := grid.Cell(courtID, 19)
	if !ok || cell.State != cal.CellOccupied {
		t.Fatalf("expected occupied cell at 19:00, got %+v", cell)
	}
	if grid.Live == nil || grid.Live.Hour != 18 || grid.Live.Minute != 30 {
		t.Fatalf("expected live indicator at 18:30, got %+v", grid.Live)
	}
}

func TestHandleCalendarHTMX(t *testing.T) {
	setupCalendarTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar?date=2025-03-11", nil)
	req.Header.Set("HX-Request", "true")
	recorder := httptest.NewRecorder()
	HandleCalendar(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if contentType := recorder.Header().Get("Content-Type"); !strings.HasPrefix(contentType, "text/html") {
		t.Fatalf("expected text/html content type, got %q", contentType)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, `data-date="2025-03-11"`) || !strings.Contains(body, "Court 2") {
		t.Fatalf("unexpected calendar markup: %s", body)
	}
	if strings.Contains(body, `id="calendar-live"`) {
		t.Fatalf("expected no live marker on another day")
	}
}

func TestHandleCalendarBadDate(t *testing.T) {
	setupCalendarTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar?date=tomorrow", nil)
	recorder := httptest.NewRecorder()
	HandleCalendar(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
}

type streamRecorder struct {
	*httptest.ResponseRecorder
	mu     sync.Mutex
	writes chan struct{}
}

func (s *streamRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	n, err := s.ResponseRecorder.Write(p)
	s.mu.Unlock()
	select {
	case s.writes <- struct{}{}:
	default:
	}
	return n, err
}

func (s *streamRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ResponseRecorder.Body.String()
}

func TestHandleCalendarLiveStreamsAndUnmounts(t *testing.T) {
	_, _, scheduler := setupCalendarTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/live?date=2025-03-10", nil).WithContext(ctx)
	recorder := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), writes: make(chan struct{}, 1)}

	done := make(chan struct{})
	go func() {
		HandleCalendarLive(recorder, req)
		close(done)
	}()

	select {
	case <-recorder.writes:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for live event")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler did not return after disconnect")
	}

	body := recorder.body()
	if !strings.Contains(body, "event: live") || !strings.Contains(body, `"minute":30`) {
		t.Fatalf("unexpected stream body: %q", body)
	}
	if scheduler.removedCount() != 1 {
		t.Fatalf("expected live job removed once, got %d", scheduler.removedCount())
	}
}
