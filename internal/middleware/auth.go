package middleware

import (
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/config"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTProtected validates the bearer token and puts the caller's identity on
// the request's user context, where the repositories look for it.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c)
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c)
			}
			id, err := identity.IdentityFromClaims(claims)
			if err != nil {
				return unauthorized(c)
			}
			c.SetUserContext(identity.WithCaller(c.UserContext(), id))
			return c.Next()
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized: invalid or expired token",
	})
}
