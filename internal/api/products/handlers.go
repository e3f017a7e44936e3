// internal/api/products/handlers.go
package products

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/models"
)

type Store interface {
	List(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product models.Product) (models.Product, error)
	Update(ctx context.Context, product models.Product) (models.Product, error)
	Delete(ctx context.Context, id int64) error
}

var (
	store     Store
	storeOnce sync.Once
)

const productsQueryTimeout = 5 * time.Second

type productRequest struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"priceCents"`
	Stock      int64  `json:"stock"`
}

type listResponse struct {
	Products []models.Product `json:"products"`
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
		log.Ctx(r.Context()).Error().Msg("Product store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return store
}

func decodeProduct(r *http.Request, id int64) (models.Product, error) {
	var req productRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		return models.Product{}, apiutil.BadRequest("%s", err.Error())
	}
	product := models.Product{
		ID:         id,
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
	}
	if err := product.Validate(); err != nil {
		return models.Product{}, apiutil.FieldError{Field: "product", Reason: err.Error()}
	}
	return product, nil
}

// GET /api/v1/products
func HandleProductList(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), productsQueryTimeout)
	defer cancel()

	items, err := s.List(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, listResponse{Products: items}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write products response")
	}
}

// POST /api/v1/products
func HandleProductCreate(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	product, err := decodeProduct(r, 0)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), productsQueryTimeout)
	defer cancel()

	created, err := s.Create(ctx, product)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write product response")
	}
}

// PUT /api/v1/products/{id}
func HandleProductUpdate(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	product, err := decodeProduct(r, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), productsQueryTimeout)
	defer cancel()

	updated, err := s.Update(ctx, product)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write product response")
	}
}

// DELETE /api/v1/products/{id}
func HandleProductDelete(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), productsQueryTimeout)
	defer cancel()

	if err := s.Delete(ctx, id); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
