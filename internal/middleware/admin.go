package middleware

import (
	"michi/internal/logging"
	"michi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequireAdmin must run after RequireAuth. It admits only identities whose
// capabilities include administration.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}

		if !isAdmin(identity) {
			logging.WithUser(identity.UserID.Hex(), identity.UserName).
				Warn("admin route denied", "method", c.Method(), "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Administrator access required",
			})
		}

		return c.Next()
	}
}

func isAdmin(caps models.Capabilities) bool {
	return caps.IsAdmin()
}
