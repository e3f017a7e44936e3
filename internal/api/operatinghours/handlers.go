// internal/api/operatinghours/handlers.go
package operatinghours

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/schedule"
)

const (
	operatingHoursQueryTimeout = 5 * time.Second
	dayParam                   = "day"
)

// Store persists the weekly opening schedule.
type Store interface {
	Weekly(ctx context.Context) (models.WeeklySchedule, error)
	Save(ctx context.Context, day models.DaySchedule) (models.DaySchedule, error)
	Delete(ctx context.Context, day string) error
}

var (
	store     Store
	locale    schedule.Locale
	storeOnce sync.Once
)

type dayRequest struct {
	Open      bool `json:"open"`
	StartHour int  `json:"startHour"`
	EndHour   int  `json:"endHour"`
}

type scheduleResponse struct {
	Locale schedule.Locale       `json:"locale"`
	Days   models.WeeklySchedule `json:"days"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s Store, l schedule.Locale) {
	if s == nil {
		return
	}
	storeOnce.Do(func() {
		store = s
		locale = l
	})
}

func loadStore(w http.ResponseWriter, r *http.Request) Store {
	if store == nil {
		log.Ctx(r.Context()).Error().Msg("Schedule store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return store
}

// dayFromPath matches the {day} label against the club locale, ignoring case,
// and returns the canonical label.
func dayFromPath(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.PathValue(dayParam))
	if raw == "" {
		return "", apiutil.FieldError{Field: dayParam, Reason: "is required"}
	}
	for _, label := range locale.Labels() {
		if strings.EqualFold(label, raw) {
			return label, nil
		}
	}
	return "", apiutil.FieldError{Field: dayParam, Reason: "is not a weekday in " + string(locale)}
}

// GET /api/v1/schedule
func HandleScheduleGet(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), operatingHoursQueryTimeout)
	defer cancel()

	weekly, err := s.Weekly(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, scheduleResponse{Locale: locale, Days: weekly}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write schedule response")
	}
}

// PUT /api/v1/schedule/{day}
func HandleScheduleUpdate(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	day, err := dayFromPath(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req dayRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("%s", err.Error()))
		return
	}

	entry := models.DaySchedule{Day: day, Open: req.Open, StartHour: req.StartHour, EndHour: req.EndHour}
	if err := entry.Validate(); err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "hours", Reason: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), operatingHoursQueryTimeout)
	defer cancel()

	saved, err := s.Save(ctx, entry)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Str("day", saved.Day).
		Bool("open", saved.Open).
		Int("start_hour", saved.StartHour).
		Int("end_hour", saved.EndHour).
		Msg("Opening hours updated")

	if err := apiutil.WriteJSON(w, http.StatusOK, saved); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write schedule response")
	}
}

// DELETE /api/v1/schedule/{day}
func HandleScheduleDelete(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	day, err := dayFromPath(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), operatingHoursQueryTimeout)
	defer cancel()

	if err := s.Delete(ctx, day); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
