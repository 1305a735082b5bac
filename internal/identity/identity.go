package identity

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"

	// TokenLocalsKey is where the JWT middleware stores the parsed token.
	TokenLocalsKey = "user"
	// AdminTokenLocalsKey marks requests authenticated with the static admin token.
	AdminTokenLocalsKey = "admin_token"
)

// Identity is the caller as resolved from the request credentials.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// FromContext resolves the caller from Fiber locals. It returns nil when the
// request carried no valid credentials.
func FromContext(c *fiber.Ctx) *Identity {
	if ok, _ := c.Locals(AdminTokenLocalsKey).(bool); ok {
		return &Identity{UserID: "admin-token", Role: RoleAdmin}
	}

	token, ok := c.Locals(TokenLocalsKey).(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return nil
	}
	return FromClaims(token.Claims)
}

// FromClaims maps standard and Supabase-style claims onto an Identity.
func FromClaims(claims jwt.Claims) *Identity {
	mc, ok := claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil
	}
	email, _ := mc["email"].(string)

	role, _ := mc["role"].(string)
	if meta, ok := mc["app_metadata"].(map[string]interface{}); ok {
		if r, ok := meta["role"].(string); ok && r != "" {
			role = r
		}
	}

	return &Identity{UserID: sub, Email: email, Role: role}
}
