package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/mirror"
)

// Session is a signed-in user with its tokens.
type Session struct {
	User   domain.User     `json:"user"`
	Tokens identity.Tokens `json:"tokens"`
}

type AuthRepository struct {
	identity *identity.Service
	sessions *identity.SessionManager
	store    docstore.Store
	mirror   mirror.Mirror
	now      func() time.Time
}

func NewAuthRepository(ids *identity.Service, sessions *identity.SessionManager, store docstore.Store, m mirror.Mirror) *AuthRepository {
	return &AuthRepository{identity: ids, sessions: sessions, store: store, mirror: m, now: time.Now}
}

func (r *AuthRepository) RegisterWithEmail(ctx context.Context, name, email, password string) (domain.User, error) {
	id, err := r.identity.Register(ctx, name, email, password)
	if err != nil {
		return domain.User{}, err
	}
	return r.loadOrCreate(ctx, id)
}

func (r *AuthRepository) LoginWithEmail(ctx context.Context, email, password string) (domain.User, error) {
	return r.signIn(ctx, identity.EmailPassword(email, password))
}

func (r *AuthRepository) LoginWithGoogle(ctx context.Context, idToken string) (domain.User, error) {
	return r.signIn(ctx, identity.GoogleToken(idToken))
}

func (r *AuthRepository) LoginWithApple(ctx context.Context, identityToken, fullName string) (domain.User, error) {
	return r.signIn(ctx, identity.AppleToken(identityToken, fullName))
}

func (r *AuthRepository) signIn(ctx context.Context, cred identity.Credential) (domain.User, error) {
	id, err := r.identity.SignIn(ctx, cred)
	if err != nil {
		return domain.User{}, err
	}
	return r.loadOrCreate(ctx, id)
}

// loadOrCreate returns the stored profile for id, creating it from the
// provider's claims on first sign-in.
func (r *AuthRepository) loadOrCreate(ctx context.Context, id identity.Identity) (domain.User, error) {
	doc, err := r.store.Get(ctx, CollectionUsers, id.UserID)
	var u domain.User
	switch {
	case err == nil:
		u = userFromDoc(doc)
	case isNotFound(err):
		u = newProfile(id, r.now().UnixMilli())
		if err := r.store.Set(ctx, CollectionUsers, u.ID, userDoc(u)); err != nil {
			return domain.User{}, storeErr("create profile", err)
		}
	default:
		return domain.User{}, storeErr("load profile", err)
	}

	if err := r.mirror.UpsertUser(ctx, u); err != nil {
		slog.Warn("mirror user write failed", "op", "mirror.UpsertUser", "user_id", u.ID, "error", err)
	}
	return u, nil
}

// CurrentUser returns the caller's profile, falling back to the mirror copy
// when the remote store cannot be read. Any failure yields false.
func (r *AuthRepository) CurrentUser(ctx context.Context) (domain.User, bool) {
	who, ok := identity.CallerFrom(ctx)
	if !ok {
		return domain.User{}, false
	}
	doc, err := r.store.Get(ctx, CollectionUsers, who.UserID)
	if err == nil {
		return userFromDoc(doc), true
	}
	u, err := r.mirror.GetUser(ctx, who.UserID)
	if err != nil {
		return domain.User{}, false
	}
	return u, true
}

// StartSession issues tokens for u.
func (r *AuthRepository) StartSession(ctx context.Context, u domain.User) (Session, error) {
	tokens, err := r.sessions.Issue(ctx, identityOf(u))
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Tokens: tokens}, nil
}

// RefreshSession rotates a refresh token and reloads the profile.
func (r *AuthRepository) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	tokens, id, err := r.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return Session{}, err
	}
	u, err := r.loadOrCreate(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Tokens: tokens}, nil
}

// SignOut revokes the refresh token. Access tokens expire on their own.
func (r *AuthRepository) SignOut(ctx context.Context, refreshToken string) error {
	return r.sessions.Revoke(ctx, refreshToken)
}

func identityOf(u domain.User) identity.Identity {
	return identity.Identity{UserID: u.ID, DisplayName: u.Name, Email: u.Email, PhotoURL: u.PhotoURL}
}
