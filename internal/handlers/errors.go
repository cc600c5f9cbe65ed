package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/presenter"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badBody(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
}

// respondError maps domain and identity errors to HTTP statuses. Anything
// unrecognized goes to the app's error handler, which hides the details.
func respondError(c *fiber.Ctx, err error) error {
	var v *domain.ValidationError
	switch {
	case errors.As(err, &v):
		return errorJSON(c, fiber.StatusBadRequest, v.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, identity.ErrWrongPassword),
		errors.Is(err, identity.ErrUnknownEmail),
		errors.Is(err, identity.ErrInvalidToken):
		return errorJSON(c, fiber.StatusUnauthorized, presenter.AuthMessage(err))
	case errors.Is(err, identity.ErrEmailInUse):
		return errorJSON(c, fiber.StatusConflict, presenter.AuthMessage(err))
	case errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, identity.ErrUnsupportedMethod):
		return errorJSON(c, fiber.StatusBadRequest, presenter.AuthMessage(err))
	case errors.Is(err, domain.ErrStore), errors.Is(err, identity.ErrProviderUnavailable):
		slog.Error("upstream failure", "method", c.Method(), "path", c.Path(), "error", err.Error())
		capture(c, err)
		return errorJSON(c, fiber.StatusBadGateway, "Upstream service unavailable, try again")
	}
	return err
}

func capture(c *fiber.Ctx, err error) {
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

// ErrorHandler is the fiber error handler. Only client errors expose their
// message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		capture(c, err)
		message = "Internal server error"
	}
	return errorJSON(c, code, message)
}
