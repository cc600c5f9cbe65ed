package identity

import (
	"context"
	"sync"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/models"
	"gorm.io/gorm"
)

type memCredentials struct {
	mu    sync.Mutex
	byUID map[string]*models.Credential
	err   error
}

func newMemCredentials() *memCredentials {
	return &memCredentials{byUID: make(map[string]*models.Credential)}
}

func (m *memCredentials) FindByEmail(_ context.Context, email string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.byUID {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCredentials) FindByAppleID(_ context.Context, appleID string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.byUID {
		if c.AppleUserID != nil && *c.AppleUserID == appleID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCredentials) Create(_ context.Context, c *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.byUID[c.UID] = &cp
	return nil
}

func (m *memCredentials) LinkApple(_ context.Context, c *models.Credential, appleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.byUID[c.UID]
	stored.AppleUserID = &appleID
	stored.AuthProvider = "apple"
	return nil
}

type memRefresh struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newMemRefresh() *memRefresh {
	return &memRefresh{tokens: make(map[string]*models.RefreshToken)}
}

func (m *memRefresh) Save(_ context.Context, t *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens[t.TokenHash] = &cp
	return nil
}

func (m *memRefresh) Consume(_ context.Context, hash string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.Revoked {
		return nil, gorm.ErrRecordNotFound
	}
	t.Revoked = true
	cp := *t
	return &cp, nil
}

func (m *memRefresh) Revoke(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[hash]; ok {
		t.Revoked = true
	}
	return nil
}
