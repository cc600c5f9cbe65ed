package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

// CredentialStore persists login records. Find methods return
// gorm.ErrRecordNotFound when nothing matches.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
	FindByAppleID(ctx context.Context, appleID string) (*models.Credential, error)
	Create(ctx context.Context, c *models.Credential) error
	LinkApple(ctx context.Context, c *models.Credential, appleID string) error
}

type GormCredentials struct {
	db *gorm.DB
}

func NewGormCredentials(db *gorm.DB) *GormCredentials {
	return &GormCredentials{db: db}
}

func (g *GormCredentials) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var c models.Credential
	if err := g.db.WithContext(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (g *GormCredentials) FindByAppleID(ctx context.Context, appleID string) (*models.Credential, error) {
	var c models.Credential
	if err := g.db.WithContext(ctx).Where("apple_user_id = ?", appleID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (g *GormCredentials) Create(ctx context.Context, c *models.Credential) error {
	return g.db.WithContext(ctx).Create(c).Error
}

func (g *GormCredentials) LinkApple(ctx context.Context, c *models.Credential, appleID string) error {
	return g.db.WithContext(ctx).Model(c).Updates(map[string]interface{}{
		"apple_user_id": appleID,
		"auth_provider": "apple",
	}).Error
}

// PasswordProvider signs users in with email and password.
type PasswordProvider struct {
	store CredentialStore
	cost  int
}

func NewPasswordProvider(store CredentialStore) *PasswordProvider {
	return &PasswordProvider{store: store, cost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *PasswordProvider) Register(ctx context.Context, name, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Identity{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return Identity{}, ErrWeakPassword
	}

	_, err := p.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return Identity{}, ErrEmailInUse
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &models.Credential{
		ID:           uuid.New(),
		UID:          uuid.NewString(),
		Email:        email,
		Password:     string(hash),
		DisplayName:  strings.TrimSpace(name),
		AuthProvider: "email",
	}
	if err := p.store.Create(ctx, cred); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return credentialIdentity(cred), nil
}

func (p *PasswordProvider) SignIn(ctx context.Context, cred Credential) (Identity, error) {
	email := normalizeEmail(cred.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Identity{}, ErrInvalidEmail
	}

	c, err := p.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrUnknownEmail
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if c.Password == "" {
		// federated-only account
		return Identity{}, ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(cred.Password)); err != nil {
		return Identity{}, ErrWrongPassword
	}
	return credentialIdentity(c), nil
}

func credentialIdentity(c *models.Credential) Identity {
	name := c.DisplayName
	if name == "" {
		name = strings.Split(c.Email, "@")[0]
	}
	return Identity{UserID: c.UID, DisplayName: name, Email: c.Email, PhotoURL: c.PhotoURL}
}
