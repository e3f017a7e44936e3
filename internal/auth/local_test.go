package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/Courtside/internal/models"
)

const testSecret = "test-secret-key-0123456789"

type fakeStaffStore struct {
	mu    sync.Mutex
	staff map[int64]models.Staff
}

func newFakeStaffStore(t *testing.T, password string) *fakeStaffStore {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &fakeStaffStore{staff: map[int64]models.Staff{
		7: {ID: 7, Name: "Front Desk", Email: "desk@club.test", PasswordHash: hash, Role: models.RoleStaff},
	}}
}

func (s *fakeStaffStore) Get(_ context.Context, id int64) (models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.staff[id]
	if !ok {
		return models.Staff{}, models.ErrNotFound
	}
	return member, nil
}

func (s *fakeStaffStore) GetByEmail(_ context.Context, email string) (models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, member := range s.staff {
		if strings.EqualFold(member.Email, email) {
			return member, nil
		}
	}
	return models.Staff{}, models.ErrNotFound
}

func (s *fakeStaffStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.staff[id]
	if !ok {
		return models.ErrNotFound
	}
	member.PasswordHash = hash
	s.staff[id] = member
	return nil
}

func (s *fakeStaffStore) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staff, id)
}

func (s *fakeStaffStore) setRole(id int64, role models.StaffRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member := s.staff[id]
	member.Role = role
	s.staff[id] = member
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLocalProvider(t *testing.T, store StaffStore, clock *testClock) *LocalProvider {
	t.Helper()
	provider, err := NewLocalProvider(store, testSecret, WithNow(clock.Now), WithSessionTTL(time.Hour))
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	t.Cleanup(provider.Close)
	return provider
}

func TestNewLocalProviderRequiresSecret(t *testing.T) {
	if _, err := NewLocalProvider(&fakeStaffStore{}, "short"); err == nil {
		t.Fatal("expected error for short secret")
	}
	if _, err := NewLocalProvider(nil, testSecret); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestLocalProviderSignInAndSession(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	provider := newTestLocalProvider(t, newFakeStaffStore(t, "correct horse"), clock)

	var changes []Change
	provider.OnSessionChange(func(c Change) { changes = append(changes, c) })

	if _, err := provider.SignIn(ctx, "desk@club.test", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := provider.SignIn(ctx, "nobody@club.test", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	session, err := provider.SignIn(ctx, " DESK@club.test ", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.User.ID != "7" || session.User.Role != models.RoleStaff {
		t.Fatalf("unexpected user %+v", session.User)
	}
	if !session.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Fatalf("expected expiry in one hour, got %s", session.ExpiresAt)
	}

	got, err := provider.Session(ctx, session.Token)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.User.Email != "desk@club.test" {
		t.Fatalf("unexpected session user %+v", got.User)
	}

	if len(changes) != 1 || changes[0].Kind != ChangeSignedIn {
		t.Fatalf("expected one signed_in change, got %+v", changes)
	}
}

func TestLocalProviderRejectsTamperedAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := newFakeStaffStore(t, "correct horse")
	provider := newTestLocalProvider(t, store, clock)

	session, err := provider.SignIn(ctx, "desk@club.test", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if _, err := provider.Session(ctx, session.Token+"x"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for tampered token, got %v", err)
	}
	if _, err := provider.Session(ctx, "not-a-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for garbage, got %v", err)
	}

	other, err := NewLocalProvider(store, "another-secret-key-9876543210", WithNow(clock.Now))
	if err != nil {
		t.Fatalf("NewLocalProvider: %v", err)
	}
	t.Cleanup(other.Close)
	if _, err := other.Session(ctx, session.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected token from another secret to be rejected, got %v", err)
	}
}

func TestLocalProviderSessionExpires(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	provider := newTestLocalProvider(t, newFakeStaffStore(t, "correct horse"), clock)

	session, err := provider.SignIn(ctx, "desk@club.test", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	clock.Advance(59 * time.Minute)
	if _, err := provider.Session(ctx, session.Token); err != nil {
		t.Fatalf("expected session to be live, got %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := provider.Session(ctx, session.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestLocalProviderSignOut(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	provider := newTestLocalProvider(t, newFakeStaffStore(t, "correct horse"), clock)

	var kinds []ChangeKind
	unsubscribe := provider.OnSessionChange(func(c Change) { kinds = append(kinds, c.Kind) })

	session, err := provider.SignIn(ctx, "desk@club.test", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if err := provider.SignOut(ctx, session.Token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := provider.Session(ctx, session.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected revoked session, got %v", err)
	}
	if err := provider.SignOut(ctx, session.Token); err != nil {
		t.Fatalf("second SignOut should be a no-op, got %v", err)
	}

	unsubscribe()
	if _, err := provider.SignIn(ctx, "desk@club.test", "correct horse"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	want := []ChangeKind{ChangeSignedIn, ChangeSignedOut}
	if len(kinds) != len(want) {
		t.Fatalf("expected changes %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected changes %v, got %v", want, kinds)
		}
	}
}

func TestLocalProviderUpdatePassword(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := newFakeStaffStore(t, "correct horse")
	provider := newTestLocalProvider(t, store, clock)

	first, err := provider.SignIn(ctx, "desk@club.test", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	second, err := provider.SignIn(ctx, "desk@club.test", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := provider.UpdatePassword(ctx, first.Token, "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := provider.UpdatePassword(ctx, "bogus", "battery staple"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if err := provider.UpdatePassword(ctx, first.Token, "battery staple"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	if _, err := provider.Session(ctx, first.Token); err != nil {
		t.Fatalf("current session should survive, got %v", err)
	}
	if _, err := provider.Session(ctx, second.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("other sessions should be revoked, got %v", err)
	}

	if _, err := provider.SignIn(ctx, "desk@club.test", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should fail, got %v", err)
	}
	if _, err := provider.SignIn(ctx, "desk@club.test", "battery staple"); err != nil {
		t.Fatalf("new password should work, got %v", err)
	}
}

func TestLocalProviderPruneExpired(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	provider := newTestLocalProvider(t, newFakeStaffStore(t, "correct horse"), clock)

	if _, err := provider.SignIn(ctx, "desk@club.test", "correct horse"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	clock.Advance(2 * time.Hour)
	provider.pruneExpired()

	provider.mu.RLock()
	remaining := len(provider.sessions)
	provider.mu.RUnlock()
	if remaining != 0 {
		t.Fatalf("expected expired sessions to be pruned, %d remain", remaining)
	}
}

func TestLocalProviderSessionFollowsStaffRow(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := newFakeStaffStore(t, "correct horse")
	provider := newTestLocalProvider(t, store, clock)

	first, err := provider.SignIn(ctx, "desk@club.test", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	second, err := provider.SignIn(ctx, "desk@club.test", "correct horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	store.setRole(7, models.RoleAdmin)
	session, err := provider.Session(ctx, first.Token)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if session.User.Role != models.RoleAdmin {
		t.Fatalf("expected role change to apply, got %+v", session.User)
	}

	store.remove(7)
	if _, err := provider.Session(ctx, first.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after staff removal, got %v", err)
	}
	if got := len(provider.sessions); got != 0 {
		t.Fatalf("expected every session of the removed account revoked, %d left", got)
	}
	if _, err := provider.Session(ctx, second.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected second session revoked, got %v", err)
	}
}
