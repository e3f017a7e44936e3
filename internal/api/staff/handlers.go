// internal/api/staff/handlers.go
package staff

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/api/authz"
	authn "github.com/codr1/Courtside/internal/auth"
	"github.com/codr1/Courtside/internal/models"
)

type Store interface {
	List(ctx context.Context) ([]models.Staff, error)
	Create(ctx context.Context, member models.Staff) (models.Staff, error)
	Delete(ctx context.Context, id int64) error
}

var (
	store     Store
	storeOnce sync.Once
)

const staffQueryTimeout = 5 * time.Second

var errSelfDelete = apiutil.HandlerError{Status: http.StatusConflict, Message: "You cannot remove your own account"}

type staffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type listResponse struct {
	Staff []models.Staff `json:"staff"`
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
		log.Ctx(r.Context()).Error().Msg("Staff store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return store
}

func parseRole(raw string) (models.StaffRole, error) {
	switch role := models.StaffRole(strings.ToLower(strings.TrimSpace(raw))); role {
	case "":
		return models.RoleStaff, nil
	case models.RoleAdmin, models.RoleStaff:
		return role, nil
	}
	return "", apiutil.FieldError{Field: "role", Reason: "role must be admin or staff"}
}

// filterByRole keeps members with the given role; an empty role keeps all.
func filterByRole(members []models.Staff, role models.StaffRole) []models.Staff {
	if role == "" {
		return members
	}
	filtered := make([]models.Staff, 0, len(members))
	for _, member := range members {
		if member.Role == role {
			filtered = append(filtered, member)
		}
	}
	return filtered
}

func decodeStaff(r *http.Request) (models.Staff, error) {
	var req staffRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		return models.Staff{}, apiutil.BadRequest("%s", err.Error())
	}

	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		return models.Staff{}, apiutil.FieldError{Field: "name", Reason: "name is required"}
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.Staff{}, apiutil.FieldError{Field: "email", Reason: "a valid email is required"}
	}
	if err := authn.ValidatePassword(req.Password); err != nil {
		return models.Staff{}, apiutil.FieldError{Field: "password", Reason: err.Error()}
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return models.Staff{}, err
	}

	hash, err := authn.HashPassword(req.Password)
	if err != nil {
		return models.Staff{}, err
	}
	return models.Staff{Name: name, Email: email, PasswordHash: hash, Role: role}, nil
}

// GET /api/v1/staff
func HandleStaffList(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	var role models.StaffRole
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, err := parseRole(raw)
		if err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
		role = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	members, err := s.List(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, listResponse{Staff: filterByRole(members, role)}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write staff response")
	}
}

// POST /api/v1/staff
func HandleStaffCreate(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	member, err := decodeStaff(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	created, err := s.Create(ctx, member)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().
		Int64("staff_id", created.ID).
		Str("role", string(created.Role)).
		Str("created_by", authz.Actor(r.Context())).
		Msg("Staff account created")

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write staff response")
	}
}

// DELETE /api/v1/staff/{id}
func HandleStaffDelete(w http.ResponseWriter, r *http.Request) {
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
	if user := authz.UserFromContext(r.Context()); user != nil && user.ID == strconv.FormatInt(id, 10) {
		apiutil.WriteError(w, r, errSelfDelete)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	if err := s.Delete(ctx, id); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Int64("staff_id", id).Str("deleted_by", authz.Actor(r.Context())).Msg("Staff account removed")
	w.WriteHeader(http.StatusNoContent)
}
