package reservations

import (
	"errors"
	"fmt"
	"time"

	"github.com/codr1/Courtside/internal/models"
)

// ErrNotFound is returned when no reservation has the requested id.
var ErrNotFound = errors.New("reservation not found")

// ValidationError reports malformed or missing input. Nothing was changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ConflictError reports that the court slot already holds an active reservation.
type ConflictError struct {
	CourtID    int64
	Start      time.Time
	ExistingID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("court %d is already booked at %s", e.CourtID, e.Start.Format(models.ReservationTimeLayout))
}

// InvalidStateError reports a mutation the reservation's status does not allow.
type InvalidStateError struct {
	ID     int64
	Status models.ReservationStatus
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s reservation %d: status is %s", e.Op, e.ID, e.Status)
}

// PersistenceError wraps a store failure. The in-memory set is unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
