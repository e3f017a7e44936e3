// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/api/authz"
	"github.com/codr1/Courtside/internal/calendar"
	"github.com/codr1/Courtside/internal/models"
	bookings "github.com/codr1/Courtside/internal/reservations"
)

var (
	gateway     *bookings.Gateway
	gatewayOnce sync.Once
)

const reservationRequestTimeout = 5 * time.Second

type reservationRequest struct {
	CourtID         int64   `json:"courtId"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	DurationMinutes int     `json:"durationMinutes"`
	ClientName      string  `json:"clientName"`
	ClientPhone     string  `json:"clientPhone"`
	ClientEmail     string  `json:"clientEmail"`
	PriceCents      *int64  `json:"priceCents"`
	Paid            *bool   `json:"paid"`
	PaymentMethod   string  `json:"paymentMethod"`
	Type            string  `json:"type"`
	Notes           *string `json:"notes"`
}

func (req reservationRequest) input(createdBy string) bookings.Input {
	return bookings.Input{
		CourtID:         req.CourtID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		ClientEmail:     req.ClientEmail,
		PriceCents:      req.PriceCents,
		Paid:            req.Paid,
		PaymentMethod:   req.PaymentMethod,
		Type:            req.Type,
		Notes:           req.Notes,
		CreatedBy:       createdBy,
	}
}

type blockRequest struct {
	CourtID         int64  `json:"courtId"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
	Notes           string `json:"notes"`
}

type cancelRequest struct {
	ReasonCode string `json:"reasonCode"`
	Reason     string `json:"reason"`
}

type listResponse struct {
	Reservations []models.Reservation `json:"reservations"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(g *bookings.Gateway) {
	if g == nil {
		return
	}
	gatewayOnce.Do(func() {
		gateway = g
	})
}

func loadGateway(w http.ResponseWriter, r *http.Request) *bookings.Gateway {
	if gateway == nil {
		log.Ctx(r.Context()).Error().Msg("Reservation gateway not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return gateway
}

func parseFilter(r *http.Request, loc *time.Location) (bookings.Filter, error) {
	query := r.URL.Query()
	var filter bookings.Filter

	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		date, err := calendar.ParseDate(raw, loc)
		if err != nil {
			return filter, apiutil.FieldError{Field: "date", Reason: "must be in YYYY-MM-DD format"}
		}
		filter.Date = &date
	}

	for _, raw := range query["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := models.ParseReservationStatus(part)
			if err != nil {
				return filter, apiutil.FieldError{Field: "status", Reason: "is not a known status"}
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	courtID, err := apiutil.OptionalPositiveInt64(query.Get("court_id"), "court_id")
	if err != nil {
		return filter, err
	}
	filter.CourtID = courtID

	switch order := bookings.Order(strings.ToLower(strings.TrimSpace(query.Get("order")))); order {
	case "", bookings.OrderAscending, bookings.OrderDescending:
		filter.Order = order
	default:
		return filter, apiutil.FieldError{Field: "order", Reason: "must be asc or desc"}
	}
	return filter, nil
}

// GET /api/v1/reservations
func HandleReservationList(w http.ResponseWriter, r *http.Request) {
	g := loadGateway(w, r)
	if g == nil {
		return
	}

	filter, err := parseFilter(r, g.Location())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	items, err := g.List(ctx, filter)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, listResponse{Reservations: items}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write reservations response")
	}
}

// GET /api/v1/reservations/{id}
func HandleReservationGet(w http.ResponseWriter, r *http.Request) {
	g := loadGateway(w, r)
	if g == nil {
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	reservation, err := g.Get(ctx, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, reservation); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("reservation_id", id).Msg("Failed to write reservation response")
	}
}

// POST /api/v1/reservations
func HandleReservationCreate(w http.ResponseWriter, r *http.Request) {
	g := loadGateway(w, r)
	if g == nil {
		return
	}

	var req reservationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("%s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	created, err := g.Create(ctx, req.input(authz.Actor(r.Context())))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("reservation_id", created.ID).Msg("Failed to write reservation response")
	}
}

// POST /api/v1/reservations/blocks
func HandleBlockCreate(w http.ResponseWriter, r *http.Request) {
	g := loadGateway(w, r)
	if g == nil {
		return
	}

	var req blockRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("%s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	created, err := g.Block(ctx, bookings.BlockInput{
		CourtID:         req.CourtID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		CreatedBy:       authz.Actor(r.Context()),
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("reservation_id", created.ID).Msg("Failed to write block response")
	}
}

// PUT /api/v1/reservations/{id}
func HandleReservationUpdate(w http.ResponseWriter, r *http.Request) {
	g := loadGateway(w, r)
	if g == nil {
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req reservationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("%s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	updated, err := g.Update(ctx, id, req.input(""))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("reservation_id", id).Msg("Failed to write reservation response")
	}
}

// POST /api/v1/reservations/{id}/cancel
func HandleReservationCancel(w http.ResponseWriter, r *http.Request) {
	g := loadGateway(w, r)
	if g == nil {
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req cancelRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("%s", err.Error()))
		return
	}
	reason, err := models.CancelReason(req.ReasonCode, req.Reason)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "reason", Reason: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	cancelled, err := g.Cancel(ctx, id, reason)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, cancelled); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("reservation_id", id).Msg("Failed to write reservation response")
	}
}
