package identity

import (
	"context"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
)

// TokenVerifier is the part of the Firebase Auth client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// GoogleProvider accepts Firebase ID tokens minted after Google sign-in on
// the device. The Firebase uid becomes the user id.
type GoogleProvider struct {
	verifier TokenVerifier
}

func NewGoogleProvider(v TokenVerifier) *GoogleProvider {
	return &GoogleProvider{verifier: v}
}

func (p *GoogleProvider) SignIn(ctx context.Context, cred Credential) (Identity, error) {
	if strings.TrimSpace(cred.Token) == "" {
		return Identity{}, ErrInvalidToken
	}
	tok, err := p.verifier.VerifyIDToken(ctx, cred.Token)
	if err != nil {
		if auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) || auth.IsIDTokenRevoked(err) {
			return Identity{}, ErrInvalidToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	id := Identity{UserID: tok.UID}
	if v, ok := tok.Claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := tok.Claims["name"].(string); ok {
		id.DisplayName = v
	}
	if v, ok := tok.Claims["picture"].(string); ok && v != "" {
		id.PhotoURL = &v
	}
	if id.DisplayName == "" {
		id.DisplayName = cred.DisplayName
	}
	if id.DisplayName == "" && id.Email != "" {
		id.DisplayName = strings.Split(id.Email, "@")[0]
	}
	return id, nil
}
