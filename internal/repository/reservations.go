package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
	"github.com/codr1/Courtside/internal/models"
)

// Reservations stores start and end as club wall-clock text so the slot
// index and range queries compare lexically.
type Reservations struct {
	q   *dbgen.Queries
	loc *time.Location
}

func (r *Reservations) wallClock(t time.Time) string {
	return t.In(r.loc).Format(models.ReservationTimeLayout)
}

func (r *Reservations) fromRow(row dbgen.Reservation) (models.Reservation, error) {
	start, err := time.ParseInLocation(models.ReservationTimeLayout, row.StartTime, r.loc)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %d start: %w", row.ID, err)
	}
	end, err := time.ParseInLocation(models.ReservationTimeLayout, row.EndTime, r.loc)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("reservation %d end: %w", row.ID, err)
	}

	reservation := models.Reservation{
		ID:            row.ID,
		CourtID:       row.CourtID,
		ClientName:    row.ClientName,
		Start:         start,
		End:           end,
		PriceCents:    row.PriceCents,
		Status:        models.ReservationStatus(row.Status),
		Paid:          row.Paid,
		CreatedBy:     row.CreatedBy,
		PaymentMethod: models.PaymentMethod(row.PaymentMethod),
		Type:          models.ReservationType(row.ReservationType),
		Notes:         row.Notes,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.ClientID.Valid {
		clientID := row.ClientID.Int64
		reservation.ClientID = &clientID
	}
	if row.CancelReason.Valid {
		reservation.CancelReason = row.CancelReason.String
	}
	return reservation, nil
}

func (r *Reservations) fromRows(rows []dbgen.Reservation) ([]models.Reservation, error) {
	items := make([]models.Reservation, 0, len(rows))
	for _, row := range rows {
		reservation, err := r.fromRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, reservation)
	}
	return items, nil
}

func clientIDParam(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// ListReservations returns every stored reservation, cancelled ones included.
func (r *Reservations) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	rows, err := r.q.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return r.fromRows(rows)
}

// ListBetween returns reservations starting in [from, to).
func (r *Reservations) ListBetween(ctx context.Context, from, to time.Time) ([]models.Reservation, error) {
	rows, err := r.q.ListReservationsBetween(ctx, dbgen.ListReservationsBetweenParams{
		StartTime: r.wallClock(from),
		EndTime:   r.wallClock(to),
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations between: %w", err)
	}
	return r.fromRows(rows)
}

func (r *Reservations) GetReservation(ctx context.Context, id int64) (models.Reservation, error) {
	row, err := r.q.GetReservation(ctx, id)
	if err != nil {
		return models.Reservation{}, db.MapError(err)
	}
	return r.fromRow(row)
}

// InsertReservation returns models.ErrSlotTaken when another active
// reservation already holds the court and start hour.
func (r *Reservations) InsertReservation(ctx context.Context, reservation models.Reservation) (models.Reservation, error) {
	row, err := r.q.CreateReservation(ctx, dbgen.CreateReservationParams{
		CourtID:         reservation.CourtID,
		ClientID:        clientIDParam(reservation.ClientID),
		ClientName:      reservation.ClientName,
		StartTime:       r.wallClock(reservation.Start),
		EndTime:         r.wallClock(reservation.End),
		SlotKey:         models.SlotKey(reservation.Start.In(r.loc)),
		PriceCents:      reservation.PriceCents,
		Status:          string(reservation.Status),
		Paid:            reservation.Paid,
		CreatedBy:       reservation.CreatedBy,
		PaymentMethod:   string(reservation.PaymentMethod),
		ReservationType: string(reservation.Type),
		Notes:           reservation.Notes,
		CancelReason:    nullString(reservation.CancelReason),
	})
	if err != nil {
		return models.Reservation{}, db.MapError(err)
	}
	return r.fromRow(row)
}

func (r *Reservations) UpdateReservation(ctx context.Context, reservation models.Reservation) (models.Reservation, error) {
	row, err := r.q.UpdateReservation(ctx, dbgen.UpdateReservationParams{
		CourtID:         reservation.CourtID,
		ClientID:        clientIDParam(reservation.ClientID),
		ClientName:      reservation.ClientName,
		StartTime:       r.wallClock(reservation.Start),
		EndTime:         r.wallClock(reservation.End),
		SlotKey:         models.SlotKey(reservation.Start.In(r.loc)),
		PriceCents:      reservation.PriceCents,
		Status:          string(reservation.Status),
		Paid:            reservation.Paid,
		PaymentMethod:   string(reservation.PaymentMethod),
		ReservationType: string(reservation.Type),
		Notes:           reservation.Notes,
		CancelReason:    nullString(reservation.CancelReason),
		ID:              reservation.ID,
	})
	if err != nil {
		return models.Reservation{}, db.MapError(err)
	}
	return r.fromRow(row)
}
