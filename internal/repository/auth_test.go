package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/mirror"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/models"
	"gorm.io/gorm"
)

// stubProvider accepts any token and returns a fixed identity.
type stubProvider struct {
	id  identity.Identity
	err error
}

func (s stubProvider) SignIn(context.Context, identity.Credential) (identity.Identity, error) {
	return s.id, s.err
}

func (s stubProvider) Register(_ context.Context, name, email, _ string) (identity.Identity, error) {
	if s.err != nil {
		return identity.Identity{}, s.err
	}
	id := s.id
	id.DisplayName = name
	id.Email = email
	return id, nil
}

type refreshMap struct {
	mu sync.Mutex
	m  map[string]*models.RefreshToken
}

func (r *refreshMap) Save(_ context.Context, t *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.m[t.TokenHash] = &cp
	return nil
}

func (r *refreshMap) Consume(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.m[hash]
	if !ok || t.Revoked {
		return nil, gorm.ErrRecordNotFound
	}
	t.Revoked = true
	cp := *t
	return &cp, nil
}

func (r *refreshMap) Revoke(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.m[hash]; ok {
		t.Revoked = true
	}
	return nil
}

// unreadableStore fails every Get.
type unreadableStore struct {
	docstore.Store
}

func (unreadableStore) Get(context.Context, string, string) (docstore.Document, error) {
	return nil, errors.New("offline")
}

func newAuth(store docstore.Store, m mirror.Mirror, p stubProvider) *AuthRepository {
	ids := identity.NewService(nil).
		With(identity.MethodPassword, p).
		With(identity.MethodGoogle, p).
		WithRegistrar(p)
	sessions := identity.NewSessionManager(&refreshMap{m: map[string]*models.RefreshToken{}}, "secret", time.Minute, time.Hour)
	return NewAuthRepository(ids, sessions, store, m)
}

func TestRegisterCreatesProfile(t *testing.T) {
	store := docstore.NewMemory()
	m := mirror.NewMemory(nil)
	repo := newAuth(store, m, stubProvider{id: identity.Identity{UserID: "u1"}})

	u, err := repo.RegisterWithEmail(context.Background(), "Ana", "ana@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u1" || u.Name != "Ana" || u.Email != "ana@example.com" {
		t.Fatalf("unexpected profile %+v", u)
	}
	if u.CreatedEvents == nil || u.AttendedEvents == nil || u.RegisteredAt == 0 {
		t.Fatalf("profile not initialized: %+v", u)
	}
	if _, err := store.Get(context.Background(), CollectionUsers, "u1"); err != nil {
		t.Fatalf("profile not stored: %v", err)
	}
	if _, err := m.GetUser(context.Background(), "u1"); err != nil {
		t.Fatalf("profile not mirrored: %v", err)
	}
}

func TestLoginLoadsExistingProfile(t *testing.T) {
	store := docstore.NewMemory()
	existing := domain.User{ID: "g1", Name: "Stored Name", CreatedEvents: []string{"e1"}, AttendedEvents: []string{}}
	_ = store.Set(context.Background(), CollectionUsers, "g1", userDoc(existing))
	repo := newAuth(store, mirror.NewMemory(nil), stubProvider{id: identity.Identity{UserID: "g1", DisplayName: "Google Name"}})

	u, err := repo.LoginWithGoogle(context.Background(), "token")
	if err != nil {
		t.Fatal(err)
	}
	if u.Name != "Stored Name" || len(u.CreatedEvents) != 1 {
		t.Fatalf("existing profile not loaded: %+v", u)
	}
}

func TestLoginPassesProviderErrors(t *testing.T) {
	repo := newAuth(docstore.NewMemory(), mirror.NewMemory(nil), stubProvider{err: identity.ErrWrongPassword})
	if _, err := repo.LoginWithEmail(context.Background(), "a@b.c", "x"); !errors.Is(err, identity.ErrWrongPassword) {
		t.Fatalf("got %v", err)
	}
	if _, err := repo.LoginWithApple(context.Background(), "tok", ""); !errors.Is(err, identity.ErrUnsupportedMethod) {
		t.Fatalf("apple not configured: got %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	store := docstore.NewMemory()
	m := mirror.NewMemory(nil)
	repo := newAuth(store, m, stubProvider{id: identity.Identity{UserID: "u1", DisplayName: "Ana"}})

	if _, ok := repo.CurrentUser(context.Background()); ok {
		t.Fatal("anonymous context should have no current user")
	}
	if _, ok := repo.CurrentUser(as("u1", "Ana")); ok {
		t.Fatal("unknown profile should be absent")
	}
	if _, err := repo.LoginWithEmail(context.Background(), "a@b.c", "secret1"); err != nil {
		t.Fatal(err)
	}
	u, ok := repo.CurrentUser(as("u1", "Ana"))
	if !ok || u.ID != "u1" {
		t.Fatalf("got %+v %v", u, ok)
	}

	offline := newAuth(unreadableStore{store}, m, stubProvider{})
	u, ok = offline.CurrentUser(as("u1", "Ana"))
	if !ok || u.ID != "u1" {
		t.Fatalf("mirror fallback failed: %+v %v", u, ok)
	}
	if _, ok := offline.CurrentUser(as("u9", "Nobody")); ok {
		t.Fatal("store and mirror both missing should yield absent")
	}
}

func TestSessionLifecycle(t *testing.T) {
	repo := newAuth(docstore.NewMemory(), mirror.NewMemory(nil), stubProvider{id: identity.Identity{UserID: "u1", DisplayName: "Ana"}})
	ctx := context.Background()
	u, err := repo.LoginWithEmail(ctx, "a@b.c", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	s, err := repo.StartSession(ctx, u)
	if err != nil {
		t.Fatal(err)
	}
	refreshed, err := repo.RefreshSession(ctx, s.Tokens.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.User.ID != "u1" {
		t.Fatalf("refreshed user %+v", refreshed.User)
	}
	if err := repo.SignOut(ctx, refreshed.Tokens.RefreshToken); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RefreshSession(ctx, refreshed.Tokens.RefreshToken); !errors.Is(err, identity.ErrInvalidToken) {
		t.Fatalf("signed-out token still valid: %v", err)
	}
}
