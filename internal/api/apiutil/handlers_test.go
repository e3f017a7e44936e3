package apiutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codr1/Courtside/internal/api/authz"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/reservations"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &reservations.ValidationError{Field: "date", Reason: "is required"}, http.StatusBadRequest},
		{"field", FieldError{Field: "id", Reason: "must be greater than 0"}, http.StatusBadRequest},
		{"conflict", &reservations.ConflictError{CourtID: 1, Start: time.Now(), ExistingID: 4}, http.StatusConflict},
		{"invalid state", &reservations.InvalidStateError{ID: 1, Status: models.StatusCancelled, Op: "update"}, http.StatusConflict},
		{"reservation not found", reservations.ErrNotFound, http.StatusNotFound},
		{"record not found", fmt.Errorf("load: %w", models.ErrNotFound), http.StatusNotFound},
		{"persistence", &reservations.PersistenceError{Op: "insert", Err: errors.New("disk full")}, http.StatusServiceUnavailable},
		{"in use", errors.Join(models.ErrInUse, errors.New("fk")), http.StatusConflict},
		{"duplicate", models.ErrDuplicate, http.StatusConflict},
		{"unauthenticated", authz.ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", authz.ErrForbidden, http.StatusForbidden},
		{"handler", HandlerError{Status: http.StatusTooManyRequests, Message: "slow down"}, http.StatusTooManyRequests},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Fatalf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteErrorBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)

	recorder := httptest.NewRecorder()
	WriteError(recorder, req, &reservations.ConflictError{CourtID: 1, Start: time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC), ExistingID: 9})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d", recorder.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ExistingID != 9 || !strings.Contains(body.Error, "already booked") {
		t.Fatalf("unexpected body %+v", body)
	}

	recorder = httptest.NewRecorder()
	WriteError(recorder, req, errors.New("secret internal detail"))
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "secret internal detail") {
		t.Fatalf("internal error detail leaked: %s", recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	WriteError(recorder, req, &reservations.ValidationError{Field: "courtId", Reason: "is required"})
	body = ErrorResponse{}
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Field != "courtId" {
		t.Fatalf("expected field in body, got %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Court 1"}`, false},
		{"unknown field", `{"name":"Court 1","extra":true}`, true},
		{"trailing data", `{"name":"a"}{"name":"b"}`, true},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := DecodeJSON(req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/courts/1", nil)
	recorder := httptest.NewRecorder()
	if RequireAdmin(recorder, req) {
		t.Fatal("expected anonymous request to be rejected")
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", recorder.Code)
	}

	staffReq := req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: "1", Role: models.RoleStaff}))
	recorder = httptest.NewRecorder()
	if RequireAdmin(recorder, staffReq) {
		t.Fatal("expected staff request to be rejected")
	}
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status: %d", recorder.Code)
	}

	adminReq := req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: "2", Role: models.RoleAdmin}))
	recorder = httptest.NewRecorder()
	if !RequireAdmin(recorder, adminReq) {
		t.Fatalf("expected admin request to pass, status %d", recorder.Code)
	}
}

func TestIDFromPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/courts/12", nil)
	req.SetPathValue("id", "12")
	id, err := IDFromPath(req, "id")
	if err != nil || id != 12 {
		t.Fatalf("IDFromPath = %d, %v", id, err)
	}

	req.SetPathValue("id", "-3")
	if _, err := IDFromPath(req, "id"); StatusFor(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 field error, got %v", err)
	}
}
