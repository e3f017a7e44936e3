// internal/api/calendar/handlers.go
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/api/htmx"
	cal "github.com/codr1/Courtside/internal/calendar"
	"github.com/codr1/Courtside/internal/models"
	bookings "github.com/codr1/Courtside/internal/reservations"
	calendartempl "github.com/codr1/Courtside/internal/templates/components/calendar"
)

const calendarQueryTimeout = 5 * time.Second

type CourtLister interface {
	List(ctx context.Context) ([]models.Court, error)
}

type ScheduleReader interface {
	Weekly(ctx context.Context) (models.WeeklySchedule, error)
}

// Deps are the collaborators the calendar view reads from.
type Deps struct {
	Builder      *cal.Builder
	Live         *cal.LiveFeed
	Courts       CourtLister
	Schedule     ScheduleReader
	Reservations *bookings.Gateway
}

var (
	deps     Deps
	depsOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	depsOnce.Do(func() {
		deps = d
	})
}

func (d Deps) ready() bool {
	return d.Builder != nil && d.Courts != nil && d.Schedule != nil && d.Reservations != nil
}

// requestDate reads ?date= in the club timezone, defaulting to today.
func requestDate(r *http.Request) (time.Time, error) {
	loc := deps.Reservations.Location()
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		now := deps.Builder.Clock.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	date, err := cal.ParseDate(raw, loc)
	if err != nil {
		return time.Time{}, apiutil.FieldError{Field: "date", Reason: "must be in YYYY-MM-DD format"}
	}
	return date, nil
}

func buildGrid(ctx context.Context, date time.Time) (cal.Grid, error) {
	courts, err := deps.Courts.List(ctx)
	if err != nil {
		return cal.Grid{}, fmt.Errorf("list courts: %w", err)
	}
	weekly, err := deps.Schedule.Weekly(ctx)
	if err != nil {
		return cal.Grid{}, fmt.Errorf("load schedule: %w", err)
	}
	reservations, err := deps.Reservations.List(ctx, bookings.Filter{Date: &date})
	if err != nil {
		return cal.Grid{}, err
	}
	return deps.Builder.Build(date, courts, reservations, weekly)
}

// GET /api/v1/calendar
func HandleCalendar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !deps.ready() {
		logger.Error().Msg("Calendar handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	date, err := requestDate(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), calendarQueryTimeout)
	defer cancel()

	grid, err := buildGrid(ctx, date)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if htmx.IsRequest(r) {
		apiutil.RenderHTMLComponent(r.Context(), w, calendartempl.Grid(grid), "Failed to render calendar")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, grid); err != nil {
		logger.Error().Err(err).Msg("Failed to write calendar response")
	}
}

// GET /api/v1/calendar/live
//
// Streams the current-time marker as server-sent events until the client
// goes away. htmx clients get markup, everyone else JSON.
func HandleCalendarLive(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !deps.ready() || deps.Live == nil {
		logger.Error().Msg("Calendar live feed not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	date, err := requestDate(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	updates := make(chan *cal.LiveIndicator, 1)
	unmount, err := deps.Live.Mount(date, func(live *cal.LiveIndicator) {
		// Keep only the newest value if the writer is behind.
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- live:
		default:
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to mount live indicator")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer unmount()

	// The server write timeout would otherwise cut the stream.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Debug().Err(err).Msg("Failed to clear write deadline")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	asMarkup := htmx.IsRequest(r)
	for {
		select {
		case <-r.Context().Done():
			return
		case live := <-updates:
			if err := writeLiveEvent(r.Context(), w, live, asMarkup); err != nil {
				logger.Debug().Err(err).Msg("Live stream closed")
				return
			}
			flusher.Flush()
		}
	}
}

func writeLiveEvent(ctx context.Context, w http.ResponseWriter, live *cal.LiveIndicator, asMarkup bool) error {
	var data string
	if asMarkup {
		var buf bytes.Buffer
		if err := calendartempl.LiveIndicator(live).Render(ctx, &buf); err != nil {
			return err
		}
		data = buf.String()
	} else {
		encoded, err := json.Marshal(live)
		if err != nil {
			return err
		}
		data = string(encoded)
	}
	_, err := fmt.Fprintf(w, "event: live\ndata: %s\n\n", data)
	return err
}
