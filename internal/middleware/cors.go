package middleware

import (
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS is installed globally so success and error responses carry the same headers.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Admin-Token",
		AllowMethods:     "GET, PUT, OPTIONS",
		AllowCredentials: false,
	})
}
