package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	appleIssuer  = "https://appleid.apple.com"
	appleKeysURL = "https://appleid.apple.com/auth/keys"
)

var errUnknownKey = errors.New("signing key not found")

type appleJWKS struct {
	Keys []appleJWK `json:"keys"`
}

type appleJWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// AppleKeys fetches and caches Apple's signing keys for a day.
type AppleKeys struct {
	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	expiresAt  time.Time
	httpClient *http.Client
	url        string
}

func NewAppleKeys(url string) *AppleKeys {
	if url == "" {
		url = appleKeysURL
	}
	return &AppleKeys{
		keys:       make(map[string]*rsa.PublicKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        url,
	}
}

func (k *AppleKeys) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return err
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks appleJWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		pub, err := parseRSAPublicKey(jwk.N, jwk.E)
		if err != nil {
			continue
		}
		keys[jwk.Kid] = pub
	}

	k.mu.Lock()
	k.keys = keys
	k.expiresAt = time.Now().Add(24 * time.Hour)
	k.mu.Unlock()
	return nil
}

func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

// Key returns the key for kid, refetching when it is unknown or stale.
func (k *AppleKeys) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	key, ok := k.keys[kid]
	fresh := time.Now().Before(k.expiresAt)
	k.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := k.fetch(ctx); err != nil {
		return nil, err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if key, ok := k.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("kid %s: %w", kid, errUnknownKey)
}

type appleClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AppleProvider verifies Sign in with Apple identity tokens and maps the
// Apple subject to a stable user id through the credential store.
type AppleProvider struct {
	keys      *AppleKeys
	store     CredentialStore
	audiences []string
}

func NewAppleProvider(keys *AppleKeys, store CredentialStore, clientIDs []string) *AppleProvider {
	return &AppleProvider{keys: keys, store: store, audiences: clientIDs}
}

func (p *AppleProvider) verify(ctx context.Context, token string) (*appleClaims, error) {
	var keyErr error
	claims := &appleClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, err := p.keys.Key(ctx, kid)
		if err != nil {
			keyErr = err
		}
		return key, err
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if keyErr != nil && !errors.Is(keyErr, errUnknownKey) {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, keyErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	for _, aud := range p.audiences {
		for _, got := range claims.Audience {
			if got == aud {
				return claims, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: audience %v not accepted", ErrInvalidToken, claims.Audience)
}

func (p *AppleProvider) SignIn(ctx context.Context, cred Credential) (Identity, error) {
	if cred.Token == "" {
		return Identity{}, ErrInvalidToken
	}
	claims, err := p.verify(ctx, cred.Token)
	if err != nil {
		return Identity{}, err
	}

	appleUserID := claims.Subject
	email := normalizeEmail(claims.Email)
	if email == "" {
		email = appleUserID + "@privaterelay.appleid.com"
	}

	c, err := p.store.FindByAppleID(ctx, appleUserID)
	if err == nil {
		return credentialIdentity(c), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	c, err = p.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := p.store.LinkApple(ctx, c, appleUserID); err != nil {
			slog.Error("failed to link apple id", "user_id", c.UID, "error", err)
		}
		return credentialIdentity(c), nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	displayName := strings.TrimSpace(cred.DisplayName)
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}
	c = &models.Credential{
		ID:           uuid.New(),
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		AppleUserID:  &appleUserID,
		AuthProvider: "apple",
	}
	if err := p.store.Create(ctx, c); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return credentialIdentity(c), nil
}
