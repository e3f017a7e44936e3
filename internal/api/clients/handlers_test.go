package clients

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/Courtside/internal/api/apiutil"
	roster "github.com/codr1/Courtside/internal/clients"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/repository"
	"github.com/codr1/Courtside/internal/schedule"
	"github.com/codr1/Courtside/internal/testutil"
)

func setupClientsTest(t *testing.T) {
	t.Helper()

	database := testutil.NewTestDB(t)
	repos := repository.New(database, time.UTC, schedule.LocaleEnglish)

	directory = nil
	directoryOnce = sync.Once{}
	InitHandlers(roster.NewDirectory(repos.Clients, repos.Reservations, "AR"))

	t.Cleanup(func() {
		directory = nil
		directoryOnce = sync.Once{}
	})
}

func postClient(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	HandleClientCreate(recorder, req)
	return recorder
}

func TestHandleClientCreateAndSearch(t *testing.T) {
	setupClientsTest(t)

	if recorder := postClient(t, `{"name":"Ana Pérez","phone":"011 4321-5678"}`); recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if recorder := postClient(t, `{"name":"Bruno Díaz","email":"bruno@club.test"}`); recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", recorder.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients?search=ana", nil)
	recorder := httptest.NewRecorder()
	HandleClientList(recorder, req)

	var body listResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(body.Clients) != 1 || body.Clients[0].Phone != "+541143215678" {
		t.Fatalf("unexpected search result: %+v", body.Clients)
	}
}

func TestHandleClientCreateRejects(t *testing.T) {
	setupClientsTest(t)

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{name: "missing name", body: `{"name":" "}`, status: http.StatusBadRequest, field: "name"},
		{name: "bad phone", body: `{"name":"Ana","phone":"12"}`, status: http.StatusBadRequest, field: "phone"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := postClient(t, tc.body)
			if recorder.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, recorder.Code)
			}
			var body apiutil.ErrorResponse
			if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if body.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, body.Field)
			}
		})
	}

	postClient(t, `{"name":"Ana"}`)
	if recorder := postClient(t, `{"name":"ANA"}`); recorder.Code != http.StatusConflict {
		t.Fatalf("expected duplicate name to conflict, got %d", recorder.Code)
	}
}

func TestHandleClientUpdate(t *testing.T) {
	setupClientsTest(t)

	var created models.Client
	if err := json.NewDecoder(postClient(t, `{"name":"Ana"}`).Body).Decode(&created); err != nil {
		t.Fatalf("decode client: %v", err)
	}
	id := fmt.Sprint(created.ID)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/clients/"+id, strings.NewReader(`{"name":"Ana María","email":"ana@club.test"}`))
	req.SetPathValue("id", id)
	recorder := httptest.NewRecorder()
	HandleClientUpdate(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/clients/999", strings.NewReader(`{"name":"Ghost"}`))
	req.SetPathValue("id", "999")
	recorder = httptest.NewRecorder()
	HandleClientUpdate(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", recorder.Code)
	}
}
