package operatinghours

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/Courtside/internal/api/authz"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/repository"
	"github.com/codr1/Courtside/internal/schedule"
	"github.com/codr1/Courtside/internal/testutil"
)

func setupOperatingHoursTest(t *testing.T, l schedule.Locale) {
	t.Helper()

	database := testutil.NewTestDB(t)
	repos := repository.New(database, time.UTC, l)

	store = nil
	locale = ""
	storeOnce = sync.Once{}
	InitHandlers(repos.Schedule, l)

	t.Cleanup(func() {
		store = nil
		locale = ""
		storeOnce = sync.Once{}
	})
}

func withUser(req *http.Request, role models.StaffRole) *http.Request {
	user := &authz.AuthUser{ID: "1", Email: "owner@club.test", Role: role}
	return req.WithContext(authz.ContextWithUser(req.Context(), user))
}

func getSchedule(t *testing.T) scheduleResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule", nil)
	recorder := httptest.NewRecorder()
	HandleScheduleGet(recorder, withUser(req, models.RoleStaff))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var body scheduleResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	return body
}

func putDay(day, body string, role models.StaffRole) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/schedule/"+day, strings.NewReader(body))
	req.SetPathValue(dayParam, day)
	recorder := httptest.NewRecorder()
	HandleScheduleUpdate(recorder, withUser(req, role))
	return recorder
}

func TestHandleScheduleGetDefaults(t *testing.T) {
	setupOperatingHoursTest(t, schedule.LocaleEnglish)

	body := getSchedule(t)
	if len(body.Days) != 7 {
		t.Fatalf("expected 7 default days, got %d", len(body.Days))
	}
	for _, day := range body.Days {
		if !day.Open || day.StartHour != 8 || day.EndHour != 23 {
			t.Fatalf("unexpected default for %s: %+v", day.Day, day)
		}
	}
}

func TestHandleScheduleUpdate(t *testing.T) {
	setupOperatingHoursTest(t, schedule.LocaleEnglish)

	recorder := putDay("sunday", `{"open":false}`, models.RoleAdmin)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	weekly := getSchedule(t).Days
	if len(weekly) != 7 {
		t.Fatalf("expected remaining days seeded, got %d", len(weekly))
	}
	sunday, ok := weekly.Lookup("Sunday")
	if !ok || sunday.Open {
		t.Fatalf("expected Sunday closed, got %+v", sunday)
	}
	monday, ok := weekly.Lookup("Monday")
	if !ok || !monday.Open {
		t.Fatalf("expected Monday still open, got %+v", monday)
	}
}

func TestHandleScheduleUpdateRejects(t *testing.T) {
	setupOperatingHoursTest(t, schedule.LocaleEnglish)

	tests := []struct {
		name   string
		day    string
		body   string
		role   models.StaffRole
		status int
	}{
		{name: "staff", day: "Monday", body: `{"open":true,"startHour":9,"endHour":20}`, role: models.RoleStaff, status: http.StatusForbidden},
		{name: "unknown day", day: "Funday", body: `{"open":true,"startHour":9,"endHour":20}`, role: models.RoleAdmin, status: http.StatusBadRequest},
		{name: "inverted hours", day: "Monday", body: `{"open":true,"startHour":20,"endHour":9}`, role: models.RoleAdmin, status: http.StatusBadRequest},
		{name: "past midnight", day: "Monday", body: `{"open":true,"startHour":9,"endHour":25}`, role: models.RoleAdmin, status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := putDay(tc.day, tc.body, tc.role)
			if recorder.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, recorder.Code)
			}
		})
	}
}

func TestHandleScheduleSpanishLabels(t *testing.T) {
	setupOperatingHoursTest(t, schedule.LocaleSpanish)

	if recorder := putDay("sábado", `{"open":true,"startHour":10,"endHour":14}`, models.RoleAdmin); recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if _, ok := getSchedule(t).Days.Lookup("Sábado"); !ok {
		t.Fatalf("expected Sábado entry")
	}
}

func deleteDay(day string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/schedule/"+day, nil)
	req.SetPathValue(dayParam, day)
	recorder := httptest.NewRecorder()
	HandleScheduleDelete(recorder, withUser(req, models.RoleAdmin))
	return recorder
}

func TestHandleScheduleDelete(t *testing.T) {
	setupOperatingHoursTest(t, schedule.LocaleEnglish)

	putDay("Monday", `{"open":true,"startHour":9,"endHour":20}`, models.RoleAdmin)

	if recorder := deleteDay("Tuesday"); recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", recorder.Code)
	}

	days := getSchedule(t).Days
	tuesday, ok := days.Lookup("Tuesday")
	if !ok || tuesday.Open {
		t.Fatalf("expected Tuesday closed, got %+v (found=%v)", tuesday, ok)
	}
	if monday, _ := days.Lookup("Monday"); !monday.Open || monday.StartHour != 9 {
		t.Fatalf("expected Monday untouched, got %+v", monday)
	}
}

func TestHandleScheduleDeleteBeforeAnySave(t *testing.T) {
	setupOperatingHoursTest(t, schedule.LocaleEnglish)

	if recorder := deleteDay("Monday"); recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", recorder.Code)
	}

	days := getSchedule(t).Days
	if len(days) != 7 {
		t.Fatalf("expected a full week, got %d days", len(days))
	}
	if monday, _ := days.Lookup("Monday"); monday.Open {
		t.Fatalf("expected Monday closed on a fresh schedule, got %+v", monday)
	}
	if sunday, _ := days.Lookup("Sunday"); !sunday.Open {
		t.Fatalf("expected the other days to keep their defaults, got %+v", sunday)
	}
}
