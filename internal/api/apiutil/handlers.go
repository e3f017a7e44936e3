package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/authz"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/reservations"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	ExistingID int64  `json:"existingId,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("missing request body")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// StatusFor maps domain errors to HTTP statuses.
func StatusFor(err error) int {
	var (
		handlerErr     HandlerError
		fieldErr       FieldError
		validationErr  *reservations.ValidationError
		conflictErr    *reservations.ConflictError
		stateErr       *reservations.InvalidStateError
		persistenceErr *reservations.PersistenceError
	)
	switch {
	case errors.As(err, &handlerErr):
		return handlerErr.Status
	case errors.As(err, &fieldErr), errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &conflictErr), errors.As(err, &stateErr):
		return http.StatusConflict
	case errors.Is(err, reservations.ErrNotFound), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &persistenceErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrSlotTaken), errors.Is(err, models.ErrInUse), errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorResponse(err error, status int) ErrorResponse {
	var (
		handlerErr    HandlerError
		fieldErr      FieldError
		validationErr *reservations.ValidationError
		conflictErr   *reservations.ConflictError
	)
	switch {
	case errors.As(err, &handlerErr):
		return ErrorResponse{Error: handlerErr.Message}
	case errors.As(err, &fieldErr):
		return ErrorResponse{Error: fieldErr.Error(), Field: fieldErr.Field}
	case errors.As(err, &validationErr):
		return ErrorResponse{Error: validationErr.Error(), Field: validationErr.Field}
	case errors.As(err, &conflictErr):
		return ErrorResponse{Error: conflictErr.Error(), ExistingID: conflictErr.ExistingID}
	case errors.Is(err, models.ErrInUse):
		return ErrorResponse{Error: models.ErrInUse.Error()}
	case errors.Is(err, models.ErrDuplicate):
		return ErrorResponse{Error: models.ErrDuplicate.Error()}
	case errors.Is(err, models.ErrSlotTaken):
		return ErrorResponse{Error: models.ErrSlotTaken.Error()}
	}
	switch status {
	case http.StatusNotFound:
		return ErrorResponse{Error: "Not found"}
	case http.StatusServiceUnavailable:
		return ErrorResponse{Error: "Storage is unavailable, nothing was changed"}
	case http.StatusInternalServerError:
		return ErrorResponse{Error: "Internal Server Error"}
	}
	return ErrorResponse{Error: err.Error()}
}

// WriteError logs err and writes the mapped status with a JSON body.
// Server-side failures are logged at error level, client mistakes at debug.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	logger := log.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	if writeErr := WriteJSON(w, status, errorResponse(err, status)); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

func IsJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RenderHTMLComponent renders into a buffer first so a failed render never
// leaves a partial body.
func RenderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, logMessage string) bool {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMessage)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return false
	}
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to write HTML response")
	}
	return true
}

// RequireAdmin writes 401/403 and returns false unless the caller is an admin.
func RequireAdmin(w http.ResponseWriter, r *http.Request) bool {
	logger := log.Ctx(r.Context())
	user := authz.UserFromContext(r.Context())
	if err := authz.RequireAdmin(r.Context()); err != nil {
		logEvent := logger.Warn()
		if user != nil {
			logEvent = logEvent.Str("user_id", user.ID)
		}
		switch {
		case errors.Is(err, authz.ErrUnauthenticated):
			logEvent.Msg("Admin access denied: unauthenticated")
		default:
			logEvent.Msg("Admin access denied: forbidden")
		}
		WriteError(w, r, err)
		return false
	}
	return true
}
