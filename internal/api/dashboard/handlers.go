// internal/api/dashboard/handlers.go
package dashboard

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/analytics"
	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/schedule"
)

const (
	dashboardQueryTimeout = 10 * time.Second
	dashboardDateLayout   = "2006-01-02"
	defaultRangeDays      = 30
	dateRangeToday        = "today"
	dateRangeLast7Days    = "last_7_days"
	dateRangeLast30Days   = "last_30_days"
	dateRangeThisMonth    = "this_month"
	dateRangeThisYear     = "this_year"
)

type CourtLister interface {
	List(ctx context.Context) ([]models.Court, error)
}

type ScheduleReader interface {
	Weekly(ctx context.Context) (models.WeeklySchedule, error)
}

// ReservationSource lists reservations starting in [from, to).
type ReservationSource interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Reservation, error)
}

type Deps struct {
	Courts       CourtLister
	Schedule     ScheduleReader
	Reservations ReservationSource
	Resolver     schedule.Resolver
	Location     *time.Location
	Now          func() time.Time
}

var (
	deps     Deps
	depsOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	if d.Courts == nil || d.Schedule == nil || d.Reservations == nil {
		log.Warn().Msg("InitHandlers called without stores; analytics handlers will be unavailable")
		return
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	depsOnce.Do(func() {
		deps = d
	})
}

// GET /api/v1/analytics
func HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if deps.Reservations == nil {
		logger.Error().Msg("Analytics handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	from, to, err := parseDateRange(r, deps.Location, deps.Now())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dashboardQueryTimeout)
	defer cancel()

	courts, err := deps.Courts.List(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	weekly, err := deps.Schedule.Weekly(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	reservations, err := deps.Reservations.ListBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	report, err := analytics.Summarize(analytics.Input{
		From:         from,
		To:           to,
		Reservations: reservations,
		Courts:       courts,
		Weekly:       weekly,
		Resolver:     deps.Resolver,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "range", Reason: err.Error()})
		return
	}

	logger.Debug().
		Str("from", report.From).
		Str("to", report.To).
		Int("bookings", report.Bookings).
		Msg("Analytics report built")

	if err := apiutil.WriteJSON(w, http.StatusOK, report); err != nil {
		logger.Error().Err(err).Msg("Failed to write analytics response")
	}
}

// parseDateRange returns inclusive start and end dates. ?range= takes a
// preset; with no parameters at all the last 30 days are used.
func parseDateRange(r *http.Request, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	query := r.URL.Query()
	preset := strings.ToLower(strings.TrimSpace(query.Get("range")))
	fromRaw := strings.TrimSpace(query.Get("from"))
	toRaw := strings.TrimSpace(query.Get("to"))

	if preset != "" {
		from, to, ok := presetDateRange(preset, now.In(loc))
		if !ok {
			return time.Time{}, time.Time{}, apiutil.FieldError{Field: "range", Reason: "is not a known preset"}
		}
		return from, to, nil
	}

	if fromRaw == "" && toRaw == "" {
		from, to, _ := presetDateRange(dateRangeLast30Days, now.In(loc))
		return from, to, nil
	}
	if fromRaw == "" || toRaw == "" {
		return time.Time{}, time.Time{}, apiutil.BadRequest("from and to are both required")
	}

	from, err := time.ParseInLocation(dashboardDateLayout, fromRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apiutil.FieldError{Field: "from", Reason: "must be in YYYY-MM-DD format"}
	}
	to, err := time.ParseInLocation(dashboardDateLayout, toRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apiutil.FieldError{Field: "to", Reason: "must be in YYYY-MM-DD format"}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apiutil.FieldError{Field: "to", Reason: "must not be before from"}
	}
	return from, to, nil
}

func presetDateRange(preset string, now time.Time) (time.Time, time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch preset {
	case dateRangeToday:
		return today, today, true
	case dateRangeLast7Days:
		return today.AddDate(0, 0, -6), today, true
	case dateRangeLast30Days:
		return today.AddDate(0, 0, -(defaultRangeDays - 1)), today, true
	case dateRangeThisMonth:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), today, true
	case dateRangeThisYear:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), today, true
	}
	return time.Time{}, time.Time{}, false
}
