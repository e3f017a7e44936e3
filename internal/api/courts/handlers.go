// internal/api/courts/handlers.go
package courts

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/models"
)

// Store persists courts.
type Store interface {
	List(ctx context.Context) ([]models.Court, error)
	GetCourt(ctx context.Context, id int64) (models.Court, error)
	Create(ctx context.Context, court models.Court) (models.Court, error)
	Update(ctx context.Context, court models.Court) (models.Court, error)
	Delete(ctx context.Context, id int64) error
}

var (
	store     Store
	storeOnce sync.Once
)

const courtsQueryTimeout = 5 * time.Second

type courtRequest struct {
	Name          string   `json:"name"`
	Sports        []string `json:"sports"`
	Surface       string   `json:"surface"`
	Indoor        bool     `json:"indoor"`
	Lighting      bool     `json:"lighting"`
	StartRounding string   `json:"startRounding"`
}

func (req courtRequest) court(id int64) models.Court {
	return models.Court{
		ID:            id,
		Name:          req.Name,
		Sports:        req.Sports,
		Surface:       req.Surface,
		Indoor:        req.Indoor,
		Lighting:      req.Lighting,
		StartRounding: models.StartRounding(req.StartRounding),
	}
}

type listResponse struct {
	Courts []models.Court `json:"courts"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s Store) {
	if s == nil {
		return
	}
	storeOnce.Do(func() {
		store = s
	})
}

func loadStore(w http.ResponseWriter, r *http.Request) Store {
	if store == nil {
		log.Ctx(r.Context()).Error().Msg("Court store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return store
}

func decodeCourt(r *http.Request, id int64) (models.Court, error) {
	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		return models.Court{}, apiutil.BadRequest("%s", err.Error())
	}
	court := req.court(id)
	if err := court.Validate(); err != nil {
		return models.Court{}, apiutil.FieldError{Field: "court", Reason: err.Error()}
	}
	return court, nil
}

// GET /api/v1/courts
func HandleCourtList(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	courts, err := s.List(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, listResponse{Courts: courts}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write courts response")
	}
}

// POST /api/v1/courts
func HandleCourtCreate(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	court, err := decodeCourt(r, 0)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	created, err := s.Create(ctx, court)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Int64("court_id", created.ID).Str("name", created.Name).Msg("Court created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write court response")
	}
}

// PUT /api/v1/courts/{id}
func HandleCourtUpdate(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	court, err := decodeCourt(r, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	updated, err := s.Update(ctx, court)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write court response")
	}
}

// DELETE /api/v1/courts/{id}
func HandleCourtDelete(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	if err := s.Delete(ctx, id); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Int64("court_id", id).Msg("Court deleted")
	w.WriteHeader(http.StatusNoContent)
}
