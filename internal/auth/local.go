package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/models"
)

const (
	DefaultSessionTTL      = 8 * time.Hour
	sessionIDBytes         = 24
	sessionCleanupInterval = 15 * time.Minute
	tokenIssuer            = "courtside"
)

// StaffStore is the slice of the staff repository the local provider uses.
type StaffStore interface {
	Get(ctx context.Context, id int64) (models.Staff, error)
	GetByEmail(ctx context.Context, email string) (models.Staff, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type sessionRecord struct {
	user      User
	staffID   int64
	expiresAt time.Time
}

// LocalProvider checks passwords against the staff table. Tokens are signed
// JWTs whose id must also be present in the in-memory session table, so
// sign-out and restarts revoke them.
type LocalProvider struct {
	staff  StaffStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]sessionRecord

	listeners listeners

	cleanupOnce   sync.Once
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupWg     sync.WaitGroup
}

type LocalOption func(*LocalProvider)

func WithSessionTTL(ttl time.Duration) LocalOption {
	return func(p *LocalProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

func WithNow(now func() time.Time) LocalOption {
	return func(p *LocalProvider) {
		if now != nil {
			p.now = now
		}
	}
}

func NewLocalProvider(staff StaffStore, secret string, opts ...LocalOption) (*LocalProvider, error) {
	if staff == nil {
		return nil, errors.New("local auth requires a staff store")
	}
	if len(secret) < 16 {
		return nil, errors.New("local auth requires a secret key of at least 16 bytes")
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &LocalProvider{
		staff:         staff,
		secret:        []byte(secret),
		ttl:           DefaultSessionTTL,
		now:           time.Now,
		sessions:      make(map[string]sessionRecord),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close stops the session cleanup goroutine.
func (p *LocalProvider) Close() {
	p.cleanupCancel()
	p.cleanupWg.Wait()
}

func (p *LocalProvider) OnSessionChange(fn Listener) func() {
	return p.listeners.add(fn)
}

func userFromStaff(staff models.Staff) User {
	return User{
		ID:    strconv.FormatInt(staff.ID, 10),
		Email: staff.Email,
		Name:  staff.Name,
		Role:  staff.Role,
	}
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	p.startCleanup()

	staff, err := p.staff.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load staff: %w", err)
	}
	if !VerifyPassword(staff.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	session, err := p.issue(staff)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Int64("staff_id", staff.ID).Msg("Staff signed in")
	p.listeners.notify(Change{Kind: ChangeSignedIn, User: session.User, At: p.now()})
	return session, nil
}

func (p *LocalProvider) issue(staff models.Staff) (*Session, error) {
	sessionID, err := newSessionID()
	if err != nil {
		return nil, err
	}
	now := p.now()
	expiresAt := now.Add(p.ttl)

	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   strconv.FormatInt(staff.ID, 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	user := userFromStaff(staff)
	p.mu.Lock()
	p.sessions[sessionID] = sessionRecord{user: user, staffID: staff.ID, expiresAt: expiresAt}
	p.mu.Unlock()

	return &Session{Token: token, User: user, ExpiresAt: expiresAt}, nil
}

// parse validates the signature and expiry and returns the session id.
func (p *LocalProvider) parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", ErrSessionNotFound
	}
	return claims.ID, nil
}

func (p *LocalProvider) lookup(token string) (string, sessionRecord, error) {
	sessionID, err := p.parse(token)
	if err != nil {
		return "", sessionRecord{}, err
	}
	p.mu.RLock()
	record, ok := p.sessions[sessionID]
	p.mu.RUnlock()
	if !ok {
		return "", sessionRecord{}, ErrSessionNotFound
	}
	if !p.now().Before(record.expiresAt) {
		p.mu.Lock()
		delete(p.sessions, sessionID)
		p.mu.Unlock()
		return "", sessionRecord{}, ErrSessionNotFound
	}
	return sessionID, record, nil
}

// Session re-reads the staff row on every call, so a removed account loses
// access at once and a role change applies to open sessions.
func (p *LocalProvider) Session(ctx context.Context, token string) (*Session, error) {
	sessionID, record, err := p.lookup(token)
	if err != nil {
		return nil, err
	}

	staff, err := p.staff.Get(ctx, record.staffID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			p.revokeStaff(record.staffID)
			log.Ctx(ctx).Info().Int64("staff_id", record.staffID).Msg("Sessions revoked for removed staff account")
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load staff: %w", err)
	}

	user := userFromStaff(staff)
	if user != record.user {
		record.user = user
		p.mu.Lock()
		if _, ok := p.sessions[sessionID]; ok {
			p.sessions[sessionID] = record
		}
		p.mu.Unlock()
	}
	return &Session{Token: token, User: user, ExpiresAt: record.expiresAt}, nil
}

func (p *LocalProvider) revokeStaff(staffID int64) {
	p.mu.Lock()
	for id, record := range p.sessions {
		if record.staffID == staffID {
			delete(p.sessions, id)
		}
	}
	p.mu.Unlock()
}

// SignOut is idempotent for unknown or expired tokens.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	sessionID, record, err := p.lookup(token)
	if err != nil {
		return nil
	}
	p.mu.Lock()
	delete(p.sessions, sessionID)
	p.mu.Unlock()

	log.Ctx(ctx).Info().Int64("staff_id", record.staffID).Msg("Staff signed out")
	p.listeners.notify(Change{Kind: ChangeSignedOut, User: record.user, At: p.now()})
	return nil
}

// UpdatePassword stores a new hash and revokes the user's other sessions.
func (p *LocalProvider) UpdatePassword(ctx context.Context, token, newPassword string) error {
	sessionID, record, err := p.lookup(token)
	if err != nil {
		return err
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := p.staff.UpdatePassword(ctx, record.staffID, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	p.mu.Lock()
	for id, other := range p.sessions {
		if id != sessionID && other.staffID == record.staffID {
			delete(p.sessions, id)
		}
	}
	p.mu.Unlock()

	log.Ctx(ctx).Info().Int64("staff_id", record.staffID).Msg("Staff password updated")
	p.listeners.notify(Change{Kind: ChangePasswordUpdated, User: record.user, At: p.now()})
	return nil
}

func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (p *LocalProvider) startCleanup() {
	p.cleanupOnce.Do(func() {
		p.cleanupWg.Add(1)
		go func() {
			defer p.cleanupWg.Done()
			ticker := time.NewTicker(sessionCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-p.cleanupCtx.Done():
					return
				case <-ticker.C:
					p.pruneExpired()
				}
			}
		}()
	})
}

func (p *LocalProvider) pruneExpired() {
	now := p.now()
	p.mu.Lock()
	for id, record := range p.sessions {
		if !now.Before(record.expiresAt) {
			delete(p.sessions, id)
		}
	}
	p.mu.Unlock()
}
