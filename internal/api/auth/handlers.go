package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	authn "github.com/codr1/Courtside/internal/auth"
	"github.com/codr1/Courtside/internal/ratelimit"
)

const authRequestTimeout = 10 * time.Second

type Options struct {
	SecureCookies bool
	TrustProxy    bool
}

var (
	provider  authn.Provider
	limiter   *ratelimit.Limiter
	options   Options
	setupOnce sync.Once
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	Token     string     `json:"token,omitempty"`
	User      authn.User `json:"user"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(p authn.Provider, l *ratelimit.Limiter, opts Options) {
	if p == nil {
		return
	}
	setupOnce.Do(func() {
		provider = p
		limiter = l
		options = opts
	})
}

// Provider returns the provider WithStaffAuth validates sessions against.
func Provider() authn.Provider {
	return provider
}

func readSignIn(r *http.Request) (signInRequest, error) {
	var req signInRequest
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			return req, apiutil.BadRequest("%s", err.Error())
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return req, apiutil.BadRequest("email and password are required")
	}
	return req, nil
}

// POST /api/v1/auth/sign-in
func HandleSignIn(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if provider == nil {
		logger.Error().Msg("Auth provider not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	req, err := readSignIn(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authRequestTimeout)
	defer cancel()

	ip := ratelimit.GetClientIP(r, options.TrustProxy)
	if limiter != nil {
		if result := limiter.CheckSignIn(ctx, req.Email, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded(ctx, req.Email, ip, result.Reason)
			writeTooManyAttempts(w, r, result.RetryAfter)
			return
		}
	}

	session, err := provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authn.ErrInvalidCredentials):
			if limiter != nil && limiter.RecordFailure(ctx, req.Email, ip) {
				ratelimit.LogRateLimitExceeded(ctx, req.Email, ip, "lockout")
			}
			logger.Info().Str("identifier", ratelimit.SanitizeIdentifier(req.Email)).Msg("Sign-in rejected")
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: "Invalid email or password", Err: err})
		case errors.Is(err, authn.ErrThrottled):
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Sign-in is temporarily unavailable", Err: err})
		default:
			apiutil.WriteError(w, r, fmt.Errorf("sign in: %w", err))
		}
		return
	}

	if limiter != nil {
		limiter.Reset(ctx, req.Email)
	}
	SetSessionCookie(w, session, options.SecureCookies)
	if err := apiutil.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:     session.Token,
		User:      session.User,
		ExpiresAt: session.ExpiresAt,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to write sign-in response")
	}
}

func writeTooManyAttempts(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	apiutil.WriteError(w, r, apiutil.HandlerError{
		Status:  http.StatusTooManyRequests,
		Message: "Too many sign-in attempts, try again later",
	})
}

// POST /api/v1/auth/sign-out
func HandleSignOut(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if provider == nil {
		logger.Error().Msg("Auth provider not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authRequestTimeout)
	defer cancel()

	if token := TokenFromRequest(r); token != "" {
		if err := provider.SignOut(ctx, token); err != nil {
			apiutil.WriteError(w, r, fmt.Errorf("sign out: %w", err))
			return
		}
	}
	ClearSessionCookie(w, options.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/session
func HandleSession(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if provider == nil {
		logger.Error().Msg("Auth provider not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authRequestTimeout)
	defer cancel()

	session, err := provider.Session(ctx, TokenFromRequest(r))
	if err != nil {
		if errors.Is(err, authn.ErrSessionNotFound) {
			ClearSessionCookie(w, options.SecureCookies)
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: "Not signed in", Err: err})
			return
		}
		apiutil.WriteError(w, r, fmt.Errorf("load session: %w", err))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, sessionResponse{User: session.User, ExpiresAt: session.ExpiresAt}); err != nil {
		logger.Error().Err(err).Msg("Failed to write session response")
	}
}

// PUT /api/v1/auth/password
func HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if provider == nil {
		logger.Error().Msg("Auth provider not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req passwordRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("%s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authRequestTimeout)
	defer cancel()

	if err := provider.UpdatePassword(ctx, TokenFromRequest(r), req.NewPassword); err != nil {
		switch {
		case errors.Is(err, authn.ErrWeakPassword), errors.Is(err, authn.ErrPasswordTooLong):
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "newPassword", Reason: strings.TrimPrefix(err.Error(), "password ")})
		case errors.Is(err, authn.ErrSessionNotFound):
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: "Not signed in", Err: err})
		case errors.Is(err, authn.ErrThrottled):
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Password change is temporarily unavailable", Err: err})
		default:
			apiutil.WriteError(w, r, fmt.Errorf("update password: %w", err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
