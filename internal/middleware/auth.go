package middleware

import (
	"crypto/subtle"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/config"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/identity"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// ResolveIdentity verifies the bearer token when present and leaves the
// parsed token in locals. Missing or invalid credentials do not abort the
// request; the authorizer reports them as Unauthenticated.
func ResolveIdentity(cfg *config.Config) fiber.Handler {
	verify := jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ContextKey: identity.TokenLocalsKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Next()
		},
	})

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(cfg.AdminToken)) == 1 {
			c.Locals(identity.AdminTokenLocalsKey, true)
			return c.Next()
		}
		return verify(c)
	}
}
