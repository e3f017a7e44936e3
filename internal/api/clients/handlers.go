// internal/api/clients/handlers.go
package clients

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	roster "github.com/codr1/Courtside/internal/clients"
	"github.com/codr1/Courtside/internal/models"
)

var (
	directory     *roster.Directory
	directoryOnce sync.Once
)

const clientsQueryTimeout = 5 * time.Second

type clientRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type listResponse struct {
	Clients []models.Client `json:"clients"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d *roster.Directory) {
	if d == nil {
		return
	}
	directoryOnce.Do(func() {
		directory = d
	})
}

func loadDirectory(w http.ResponseWriter, r *http.Request) *roster.Directory {
	if directory == nil {
		log.Ctx(r.Context()).Error().Msg("Client directory not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return directory
}

// clientError maps roster validation failures onto request fields.
func clientError(err error) error {
	switch {
	case errors.Is(err, roster.ErrNameRequired):
		return apiutil.FieldError{Field: "name", Reason: "is required"}
	case errors.Is(err, roster.ErrInvalidPhone):
		return apiutil.FieldError{Field: "phone", Reason: "is not a valid phone number"}
	}
	return err
}

// GET /api/v1/clients
func HandleClientList(w http.ResponseWriter, r *http.Request) {
	d := loadDirectory(w, r)
	if d == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), clientsQueryTimeout)
	defer cancel()

	items, err := d.Search(ctx, r.URL.Query().Get("search"))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, listResponse{Clients: items}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write clients response")
	}
}

// POST /api/v1/clients
func HandleClientCreate(w http.ResponseWriter, r *http.Request) {
	d := loadDirectory(w, r)
	if d == nil {
		return
	}

	var req clientRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("%s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), clientsQueryTimeout)
	defer cancel()

	created, err := d.Create(ctx, models.Client{Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		apiutil.WriteError(w, r, clientError(err))
		return
	}
	log.Ctx(r.Context()).Info().Int64("client_id", created.ID).Msg("Client created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write client response")
	}
}

// PUT /api/v1/clients/{id}
func HandleClientUpdate(w http.ResponseWriter, r *http.Request) {
	d := loadDirectory(w, r)
	if d == nil {
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req clientRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("%s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), clientsQueryTimeout)
	defer cancel()

	updated, err := d.Update(ctx, models.Client{ID: id, Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		apiutil.WriteError(w, r, clientError(err))
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("client_id", id).Msg("Failed to write client response")
	}
}
