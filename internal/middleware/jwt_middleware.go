package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shop/internal/logger"
	"shop/internal/services"
)

// IdentityKey is the Locals key holding the *services.Identity of the caller.
const IdentityKey = "identity"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		identity, err := authService.ValidateToken(parts[1])
		if err != nil {
			logger.FromContext(c.UserContext()).Debug("JWT validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// StaffRequired rejects callers without the staff flag. It must run after
// AuthRequired.
func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := CurrentIdentity(c)
		if identity == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		if !identity.IsStaff {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Staff permission required",
			})
		}
		return c.Next()
	}
}

// CurrentIdentity returns the authenticated caller, or nil.
func CurrentIdentity(c *fiber.Ctx) *services.Identity {
	identity, _ := c.Locals(IdentityKey).(*services.Identity)
	return identity
}
