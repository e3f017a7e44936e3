package authz

import (
	"context"
	"errors"

	"github.com/codr1/Courtside/internal/models"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// AuthUser is the signed-in staff member attached to a request.
type AuthUser struct {
	ID    string
	Email string
	Name  string
	Role  models.StaffRole
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// IsAdmin reports whether user may change club configuration.
func IsAdmin(user *AuthUser) bool {
	return user != nil && user.Role == models.RoleAdmin
}

// Actor names the user for audit fields such as createdBy.
func Actor(ctx context.Context) string {
	user := UserFromContext(ctx)
	if user == nil {
		return ""
	}
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}

func RequireStaff(ctx context.Context) error {
	if UserFromContext(ctx) == nil {
		return ErrUnauthenticated
	}
	return nil
}

func RequireAdmin(ctx context.Context) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if !IsAdmin(user) {
		return ErrForbidden
	}
	return nil
}
