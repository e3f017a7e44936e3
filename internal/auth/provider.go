// Package auth signs staff in and tracks their sessions, either against the
// local staff table or an AWS Cognito user pool.
package auth

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrThrottled          = errors.New("identity provider is throttling requests")
)

type User struct {
	ID    string           `json:"id"`
	Email string           `json:"email"`
	Name  string           `json:"name"`
	Role  models.StaffRole `json:"role"`
}

type Session struct {
	Token     string    `json:"-"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ChangeKind string

const (
	ChangeSignedIn        ChangeKind = "signed_in"
	ChangeSignedOut       ChangeKind = "signed_out"
	ChangePasswordUpdated ChangeKind = "password_updated"
)

type Change struct {
	Kind ChangeKind
	User User
	At   time.Time
}

type Listener func(Change)

// Provider is the authentication backend behind the sign-in endpoints.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// Session returns the live session for token, or ErrSessionNotFound.
	Session(ctx context.Context, token string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	UpdatePassword(ctx context.Context, token, newPassword string) error
	// OnSessionChange registers fn and returns a func that removes it.
	OnSessionChange(fn Listener) (unsubscribe func())
}

// listeners is shared by the providers to fan out session changes.
type listeners struct {
	mu   sync.RWMutex
	next int
	fns  map[int]Listener
}

func (l *listeners) add(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]Listener)
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// notify calls listeners in registration order. A panicking listener is
// logged and does not stop the others.
func (l *listeners) notify(change Change) {
	l.mu.RLock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("change", string(change.Kind)).Msg("Session listener panicked")
				}
			}()
			fn(change)
		}()
	}
}
