package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/config"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	moderationHandler *handlers.ModerationHandler,
) {
	app.Get("/health", healthHandler.Check)

	disasters := app.Group("/disasters")

	// General API rate limiter: 60 req/min per IP
	disasters.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public read path
	disasters.Get("/:id/reports/verified", moderationHandler.ListVerified)

	// Moderation; the handler's authorizer enforces the admin role
	disasters.Put("/:id/reports/:reportId", middleware.ResolveIdentity(cfg), moderationHandler.ModerateReport)
}
