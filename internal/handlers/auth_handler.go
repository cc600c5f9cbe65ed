package handlers

import (
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/presenter"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	auth *repository.AuthRepository
	opts presenter.Options
}

func NewAuthHandler(auth *repository.AuthRepository, opts presenter.Options) *AuthHandler {
	return &AuthHandler{auth: auth, opts: opts}
}

// session runs one auth intent on a request-scoped presenter.
func (h *AuthHandler) session(c *fiber.Ctx, status int, intent func(p *presenter.AuthPresenter) (repository.Session, error)) error {
	p := presenter.NewAuthPresenter(h.auth, h.opts)
	defer p.Close()

	s, err := intent(p)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(dto.NewAuthResponse(s, p.State().Success))
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	return h.session(c, fiber.StatusCreated, func(p *presenter.AuthPresenter) (repository.Session, error) {
		return p.Register(c.UserContext(), req.Name, req.Email, req.Password)
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	return h.session(c, fiber.StatusOK, func(p *presenter.AuthPresenter) (repository.Session, error) {
		return p.Login(c.UserContext(), req.Email, req.Password)
	})
}

func (h *AuthHandler) GoogleSignIn(c *fiber.Ctx) error {
	var req dto.GoogleSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.IDToken == "" {
		return errorJSON(c, fiber.StatusBadRequest, "ID token is required")
	}
	return h.session(c, fiber.StatusOK, func(p *presenter.AuthPresenter) (repository.Session, error) {
		return p.LoginWithGoogle(c.UserContext(), req.IDToken)
	})
}

func (h *AuthHandler) AppleSignIn(c *fiber.Ctx) error {
	var req dto.AppleSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.IdentityToken == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Identity token is required")
	}
	return h.session(c, fiber.StatusOK, func(p *presenter.AuthPresenter) (repository.Session, error) {
		return p.LoginWithApple(c.UserContext(), req.IdentityToken, req.FullName)
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	return h.session(c, fiber.StatusOK, func(p *presenter.AuthPresenter) (repository.Session, error) {
		return p.Refresh(c.UserContext(), req.RefreshToken)
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	p := presenter.NewAuthPresenter(h.auth, h.opts)
	defer p.Close()
	if err := p.SignOut(c.UserContext(), req.RefreshToken); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to logout")
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, ok := h.auth.CurrentUser(c.UserContext())
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Profile not found")
	}
	return c.JSON(u)
}
