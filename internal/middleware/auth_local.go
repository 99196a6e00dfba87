package middleware

import (
	"context"
	"errors"
	"log"

	"michi/internal/models"
	"michi/internal/services"
	"michi/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalIdentity = "identity"
	LocalUserID   = "user_id"
)

// TokenResolver turns a bearer token into the caller's identity.
// Rejected tokens are reported as services.ErrUnauthenticated; any other error is a server fault.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (models.Identity, error)
}

// RequireAuth verifies the bearer token and stores the identity in the request context
func RequireAuth(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ExtractToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Missing or invalid authorization token",
			})
		}

		identity, err := resolver.ResolveToken(c.UserContext(), token)
		if errors.Is(err, services.ErrUnauthenticated) {
			log.Printf("❌ Auth failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}
		if err != nil {
			// Store failures are server faults, not rejected tokens.
			log.Printf("❌ Token resolution failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal server error",
			})
		}

		c.Locals(LocalIdentity, identity)
		c.Locals(LocalUserID, identity.UserID.Hex())
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by RequireAuth
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(LocalIdentity).(models.Identity)
	return identity, ok
}
