package presenter

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

// AuthView is the state of the sign-in screens.
type AuthView struct {
	Loading       bool         `json:"isLoading"`
	Authenticated bool         `json:"isAuthenticated"`
	User          *domain.User `json:"currentUser"`
	Error         string       `json:"errorMessage,omitempty"`
	Success       string       `json:"successMessage,omitempty"`
}

type AuthPresenter struct {
	repo *repository.AuthRepository
	*holder[AuthView]
}

func NewAuthPresenter(repo *repository.AuthRepository, opts Options) *AuthPresenter {
	return &AuthPresenter{
		repo: repo,
		holder: newHolder(opts.FlashDuration, func(s *AuthView) {
			s.Error = ""
			s.Success = ""
		}),
	}
}

func (p *AuthPresenter) State() AuthView { return p.snapshot() }

func (p *AuthPresenter) Watch(ctx context.Context) *stream.Subscription[AuthView] {
	return p.watch(ctx)
}

func (p *AuthPresenter) Close() { p.close() }

// CheckSession loads the profile of the caller in ctx, if any.
func (p *AuthPresenter) CheckSession(ctx context.Context) (domain.User, bool) {
	p.update(func(s *AuthView) { s.Loading = true })
	u, ok := p.repo.CurrentUser(ctx)
	p.update(func(s *AuthView) {
		s.Loading = false
		s.Authenticated = ok
		s.User = nil
		if ok {
			s.User = &u
		}
	})
	return u, ok
}

func (p *AuthPresenter) Register(ctx context.Context, name, email, password string) (repository.Session, error) {
	if strings.TrimSpace(name) == "" {
		err := domain.NewValidationError("nombre", "name is required")
		p.fail(err)
		return repository.Session{}, err
	}
	return p.signIn(ctx, "Registration successful!", func() (domain.User, error) {
		return p.repo.RegisterWithEmail(ctx, strings.TrimSpace(name), email, password)
	})
}

func (p *AuthPresenter) Login(ctx context.Context, email, password string) (repository.Session, error) {
	return p.signIn(ctx, "", func() (domain.User, error) {
		return p.repo.LoginWithEmail(ctx, strings.TrimSpace(email), password)
	})
}

func (p *AuthPresenter) LoginWithGoogle(ctx context.Context, idToken string) (repository.Session, error) {
	return p.signIn(ctx, "", func() (domain.User, error) {
		return p.repo.LoginWithGoogle(ctx, idToken)
	})
}

func (p *AuthPresenter) LoginWithApple(ctx context.Context, identityToken, fullName string) (repository.Session, error) {
	return p.signIn(ctx, "", func() (domain.User, error) {
		return p.repo.LoginWithApple(ctx, identityToken, fullName)
	})
}

// signIn runs attempt and opens a session for the resulting user. An empty
// success message greets the user by name.
func (p *AuthPresenter) signIn(ctx context.Context, success string, attempt func() (domain.User, error)) (repository.Session, error) {
	p.update(func(s *AuthView) {
		s.Loading = true
		s.Error = ""
	})
	u, err := attempt()
	if err != nil {
		p.fail(err)
		return repository.Session{}, err
	}
	session, err := p.repo.StartSession(ctx, u)
	if err != nil {
		p.fail(err)
		return repository.Session{}, err
	}
	if success == "" {
		success = "Welcome " + u.Name + "!"
	}
	p.flash(func(s *AuthView) {
		s.Loading = false
		s.Authenticated = true
		s.User = &u
		s.Success = success
	})
	return session, nil
}

func (p *AuthPresenter) Refresh(ctx context.Context, refreshToken string) (repository.Session, error) {
	session, err := p.repo.RefreshSession(ctx, refreshToken)
	if err != nil {
		p.fail(err)
		return repository.Session{}, err
	}
	u := session.User
	p.update(func(s *AuthView) {
		s.Authenticated = true
		s.User = &u
	})
	return session, nil
}

// SignOut revokes the refresh token and resets the state.
func (p *AuthPresenter) SignOut(ctx context.Context, refreshToken string) error {
	err := p.repo.SignOut(ctx, refreshToken)
	p.clearNow()
	p.update(func(s *AuthView) { *s = AuthView{} })
	return err
}

// RefreshCurrentUser reloads the profile without touching messages.
func (p *AuthPresenter) RefreshCurrentUser(ctx context.Context) {
	u, ok := p.repo.CurrentUser(ctx)
	p.update(func(s *AuthView) {
		s.User = nil
		if ok {
			s.User = &u
		}
	})
}

func (p *AuthPresenter) ClearMessages() { p.clearNow() }

func (p *AuthPresenter) fail(err error) {
	p.flash(func(s *AuthView) {
		s.Loading = false
		s.Error = AuthMessage(err)
	})
}
