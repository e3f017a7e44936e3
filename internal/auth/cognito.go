package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/cognito"
	"github.com/codr1/Courtside/internal/models"
)

// sessionRevalidateAfter bounds how long a token resolved through GetUser is
// trusted before Cognito is asked again.
const sessionRevalidateAfter = 5 * time.Minute

// IdentityPool is implemented by *cognito.CognitoClient.
type IdentityPool interface {
	PasswordAuth(ctx context.Context, email, password string) (cognito.Tokens, error)
	GetUser(ctx context.Context, accessToken string) (cognito.Identity, error)
	GlobalSignOut(ctx context.Context, accessToken string) error
	SetPassword(ctx context.Context, username, password string) error
}

type cognitoSession struct {
	user      User
	username  string
	expiresAt time.Time
}

// CognitoProvider signs staff in against a Cognito user pool. Access tokens
// are used as session tokens; resolved identities are cached per token.
type CognitoProvider struct {
	pool IdentityPool
	now  func() time.Time

	mu    sync.RWMutex
	cache map[string]cognitoSession

	listeners listeners
}

func NewCognitoProvider(pool IdentityPool) *CognitoProvider {
	return &CognitoProvider{
		pool:  pool,
		now:   time.Now,
		cache: make(map[string]cognitoSession),
	}
}

func (p *CognitoProvider) OnSessionChange(fn Listener) func() {
	return p.listeners.add(fn)
}

func roleFromAttribute(value string) models.StaffRole {
	if strings.EqualFold(strings.TrimSpace(value), string(models.RoleAdmin)) {
		return models.RoleAdmin
	}
	return models.RoleStaff
}

func userFromIdentity(identity cognito.Identity) User {
	name := identity.Name
	if name == "" {
		name = identity.Email
	}
	return User{
		ID:    identity.Subject,
		Email: identity.Email,
		Name:  name,
		Role:  roleFromAttribute(identity.Role),
	}
}

func mapPoolError(err error) error {
	switch {
	case errors.Is(err, cognito.ErrCognitoNotAuthorized):
		return ErrInvalidCredentials
	case errors.Is(err, cognito.ErrCognitoThrottled):
		return ErrThrottled
	case errors.Is(err, cognito.ErrCognitoInvalidPassword):
		return ErrWeakPassword
	}
	return err
}

func (p *CognitoProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	tokens, err := p.pool.PasswordAuth(ctx, email, password)
	if err != nil {
		if errors.Is(err, cognito.ErrCognitoChallenge) {
			log.Ctx(ctx).Warn().Err(err).Msg("Cognito sign-in needs a challenge the app does not support")
			return nil, ErrInvalidCredentials
		}
		return nil, mapPoolError(err)
	}

	identity, err := p.pool.GetUser(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("load cognito user: %w", mapPoolError(err))
	}

	user := userFromIdentity(identity)
	p.mu.Lock()
	p.cache[tokens.AccessToken] = cognitoSession{user: user, username: identity.Username, expiresAt: tokens.ExpiresAt}
	p.mu.Unlock()

	log.Ctx(ctx).Info().Str("user_id", user.ID).Msg("Staff signed in")
	p.listeners.notify(Change{Kind: ChangeSignedIn, User: user, At: p.now()})
	return &Session{Token: tokens.AccessToken, User: user, ExpiresAt: tokens.ExpiresAt}, nil
}

func (p *CognitoProvider) lookup(ctx context.Context, token string) (cognitoSession, error) {
	if token == "" {
		return cognitoSession{}, ErrSessionNotFound
	}
	now := p.now()

	p.mu.RLock()
	cached, ok := p.cache[token]
	p.mu.RUnlock()
	if ok && now.Before(cached.expiresAt) {
		return cached, nil
	}

	identity, err := p.pool.GetUser(ctx, token)
	if err != nil {
		p.forget(token)
		if errors.Is(err, cognito.ErrCognitoNotAuthorized) {
			return cognitoSession{}, ErrSessionNotFound
		}
		return cognitoSession{}, mapPoolError(err)
	}

	session := cognitoSession{
		user:      userFromIdentity(identity),
		username:  identity.Username,
		expiresAt: now.Add(sessionRevalidateAfter),
	}
	p.mu.Lock()
	p.cache[token] = session
	p.mu.Unlock()
	return session, nil
}

func (p *CognitoProvider) forget(token string) {
	p.mu.Lock()
	delete(p.cache, token)
	p.mu.Unlock()
}

func (p *CognitoProvider) Session(ctx context.Context, token string) (*Session, error) {
	session, err := p.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: session.user, ExpiresAt: session.expiresAt}, nil
}

// SignOut revokes the user's tokens in the pool. Unknown tokens are ignored.
func (p *CognitoProvider) SignOut(ctx context.Context, token string) error {
	session, err := p.lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}
	p.forget(token)

	if err := p.pool.GlobalSignOut(ctx, token); err != nil && !errors.Is(err, cognito.ErrCognitoNotAuthorized) {
		return fmt.Errorf("cognito sign out: %w", mapPoolError(err))
	}

	log.Ctx(ctx).Info().Str("user_id", session.user.ID).Msg("Staff signed out")
	p.listeners.notify(Change{Kind: ChangeSignedOut, User: session.user, At: p.now()})
	return nil
}

func (p *CognitoProvider) UpdatePassword(ctx context.Context, token, newPassword string) error {
	session, err := p.lookup(ctx, token)
	if err != nil {
		return err
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	username := session.username
	if username == "" {
		username = session.user.Email
	}
	if err := p.pool.SetPassword(ctx, username, newPassword); err != nil {
		return mapPoolError(err)
	}

	log.Ctx(ctx).Info().Str("user_id", session.user.ID).Msg("Staff password updated")
	p.listeners.notify(Change{Kind: ChangePasswordUpdated, User: session.user, At: p.now()})
	return nil
}
