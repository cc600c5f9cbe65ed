// Package identity exchanges credentials for an Identity and carries the
// caller's identity through request contexts.
package identity

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmailInUse          = errors.New("email already registered")
	ErrWrongPassword       = errors.New("wrong password")
	ErrUnknownEmail        = errors.New("no account for this email")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrUnsupportedMethod   = errors.New("sign-in method not configured")
)

// Identity is what a provider vouches for. UserID keys the user profile in
// the document store.
type Identity struct {
	UserID      string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	PhotoURL    *string `json:"photoUrl,omitempty"`
}

type Method string

const (
	MethodPassword Method = "password"
	MethodGoogle   Method = "google"
	MethodApple    Method = "apple"
)

// Credential is one sign-in attempt. Password sign-in uses Email and
// Password; federated sign-in uses Token. DisplayName is a hint used when
// the provider does not return a name.
type Credential struct {
	Method      Method
	Email       string
	Password    string
	Token       string
	DisplayName string
}

func EmailPassword(email, password string) Credential {
	return Credential{Method: MethodPassword, Email: email, Password: password}
}

func GoogleToken(idToken string) Credential {
	return Credential{Method: MethodGoogle, Token: idToken}
}

func AppleToken(identityToken, fullName string) Credential {
	return Credential{Method: MethodApple, Token: identityToken, DisplayName: fullName}
}

// Provider verifies one kind of credential.
type Provider interface {
	SignIn(ctx context.Context, cred Credential) (Identity, error)
}

// Registrar creates new accounts.
type Registrar interface {
	Register(ctx context.Context, name, email, password string) (Identity, error)
}

// Service routes credentials to the configured providers.
type Service struct {
	providers map[Method]Provider
	registrar Registrar
}

func NewService(password *PasswordProvider) *Service {
	s := &Service{providers: make(map[Method]Provider)}
	if password != nil {
		s.providers[MethodPassword] = password
		s.registrar = password
	}
	return s
}

// With registers p for method m.
func (s *Service) With(m Method, p Provider) *Service {
	s.providers[m] = p
	return s
}

// WithRegistrar sets the provider used for new email accounts.
func (s *Service) WithRegistrar(r Registrar) *Service {
	s.registrar = r
	return s
}

func (s *Service) SignIn(ctx context.Context, cred Credential) (Identity, error) {
	p, ok := s.providers[cred.Method]
	if !ok {
		return Identity{}, fmt.Errorf("%s: %w", cred.Method, ErrUnsupportedMethod)
	}
	return p.SignIn(ctx, cred)
}

func (s *Service) Register(ctx context.Context, name, email, password string) (Identity, error) {
	if s.registrar == nil {
		return Identity{}, fmt.Errorf("register: %w", ErrUnsupportedMethod)
	}
	return s.registrar.Register(ctx, name, email, password)
}

type callerKey struct{}

// WithCaller returns ctx carrying the authenticated caller.
func WithCaller(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, id)
}

// CallerFrom returns the authenticated caller, if any.
func CallerFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(callerKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}
