package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshStore persists hashed refresh tokens.
type RefreshStore interface {
	Save(ctx context.Context, t *models.RefreshToken) error
	// Consume revokes the active token with hash and returns it. It returns
	// gorm.ErrRecordNotFound when no active token matches.
	Consume(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, hash string) error
}

type GormRefreshStore struct {
	db *gorm.DB
}

func NewGormRefreshStore(db *gorm.DB) *GormRefreshStore {
	return &GormRefreshStore{db: db}
}

func (g *GormRefreshStore) Save(ctx context.Context, t *models.RefreshToken) error {
	return g.db.WithContext(ctx).Create(t).Error
}

func (g *GormRefreshStore) Consume(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token_hash = ? AND revoked = false", hash).First(&stored).Error; err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = false", stored.ID).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (g *GormRefreshStore) Revoke(ctx context.Context, hash string) error {
	return g.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hash).
		Update("revoked", true).Error
}

// Tokens is an issued session.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionManager issues HS256 access tokens and one-time refresh tokens.
type SessionManager struct {
	store      RefreshStore
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewSessionManager(store RefreshStore, secret string, accessTTL, refreshTTL time.Duration) *SessionManager {
	return &SessionManager{
		store:      store,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *SessionManager) Issue(ctx context.Context, id Identity) (Tokens, error) {
	access, err := m.accessToken(id)
	if err != nil {
		return Tokens{}, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return Tokens{}, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	refresh := base64.URLEncoding.EncodeToString(raw)

	record := &models.RefreshToken{
		ID:          uuid.New(),
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		Email:       id.Email,
		PhotoURL:    id.PhotoURL,
		TokenHash:   hashToken(refresh),
		ExpiresAt:   m.now().Add(m.refreshTTL),
	}
	if err := m.store.Save(ctx, record); err != nil {
		return Tokens{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

func (m *SessionManager) accessToken(id Identity) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"sub":   id.UserID,
		"name":  id.DisplayName,
		"email": id.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(m.accessTTL).Unix(),
	}
	if id.PhotoURL != nil {
		claims["picture"] = *id.PhotoURL
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued for the same identity.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken string) (Tokens, Identity, error) {
	stored, err := m.store.Consume(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Tokens{}, Identity{}, ErrInvalidToken
		}
		return Tokens{}, Identity{}, err
	}
	if m.now().After(stored.ExpiresAt) {
		return Tokens{}, Identity{}, ErrInvalidToken
	}

	id := Identity{
		UserID:      stored.UserID,
		DisplayName: stored.DisplayName,
		Email:       stored.Email,
		PhotoURL:    stored.PhotoURL,
	}
	tokens, err := m.Issue(ctx, id)
	if err != nil {
		return Tokens{}, Identity{}, err
	}
	return tokens, id, nil
}

func (m *SessionManager) Revoke(ctx context.Context, refreshToken string) error {
	return m.store.Revoke(ctx, hashToken(refreshToken))
}

// Secret is the HS256 key used for access tokens.
func (m *SessionManager) Secret() []byte { return m.secret }

// ParseAccess validates an access token and returns its identity.
func (m *SessionManager) ParseAccess(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return IdentityFromClaims(claims)
}

// IdentityFromClaims reads the identity an access token carries.
func IdentityFromClaims(claims jwt.MapClaims) (Identity, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}
	id := Identity{UserID: sub}
	id.DisplayName, _ = claims["name"].(string)
	id.Email, _ = claims["email"].(string)
	if pic, ok := claims["picture"].(string); ok && pic != "" {
		id.PhotoURL = &pic
	}
	return id, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
