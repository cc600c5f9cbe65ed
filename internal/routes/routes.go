package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/config"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func perIP(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	eventHandler *handlers.EventHandler,
	catalogHandler *handlers.CatalogHandler,
	legalHandler *handlers.LegalHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")
	jwt := middleware.JWTProtected(cfg)

	// Live streams are long-lived and registered before the general limiter.
	api.Get("/events/live", eventHandler.Live)
	api.Get("/events/:id/comments/live", eventHandler.CommentsLive)
	api.Get("/me/dashboard/live", jwt, eventHandler.Dashboard)

	// General API rate limiter: 60 req/min per IP
	api.Use(perIP(60))

	api.Get("/health", healthHandler.Check)

	api.Get("/catalog", catalogHandler.All)
	api.Get("/catalog/licenses", catalogHandler.Licenses)
	api.Get("/catalog/categories", catalogHandler.Categories)

	// Legal pages
	api.Get("/legal/privacy", legalHandler.PrivacyPolicy)
	api.Get("/legal/terms", legalHandler.TermsOfService)
	api.Get("/legal/licenses/:code", legalHandler.License)

	// Auth: stricter 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(perIP(10))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/google", authHandler.GoogleSignIn)
	auth.Post("/apple", authHandler.AppleSignIn)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", jwt, authHandler.Logout)
	api.Get("/auth/me", jwt, authHandler.Me)

	// Events: reads are public, writes need a caller
	api.Get("/events", eventHandler.List)
	api.Get("/events/:id", eventHandler.Get)
	api.Get("/events/:id/share", eventHandler.Share)
	api.Get("/events/:id/comments", eventHandler.Comments)

	api.Post("/events", jwt, eventHandler.Create)
	api.Put("/events/:id", jwt, eventHandler.Update)
	api.Delete("/events/:id", jwt, eventHandler.Delete)
	api.Post("/events/:id/attendance", jwt, eventHandler.Attend)
	api.Delete("/events/:id/attendance", jwt, eventHandler.Unattend)
	api.Get("/events/:id/attendees", jwt, eventHandler.Attendees)
	api.Post("/events/:id/comments", jwt, eventHandler.AddComment)

	api.Get("/me/events", jwt, eventHandler.Mine)
}
