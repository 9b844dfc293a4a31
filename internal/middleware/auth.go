package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/addisride/addisride-backend/internal/services"
)

// Locals keys set by Protected for downstream handlers.
const (
	LocalUserID   = "userID"
	LocalUserType = "userType"
	LocalPhone    = "userPhone"
)

// Protected validates the Bearer access token and stashes the caller's
// identity in locals.
func Protected(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := tokens.VerifyAccessToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserType, claims.UserType)
		c.Locals(LocalPhone, claims.Phone)
		return c.Next()
	}
}

// RequireType restricts a route to the listed user types. Must run after
// Protected.
func RequireType(types ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userType, _ := c.Locals(LocalUserType).(string)
		for _, t := range types {
			if userType == t {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}

// UserID returns the authenticated caller's ID from locals.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// UserType returns the authenticated caller's type from locals.
func UserType(c *fiber.Ctx) string {
	t, _ := c.Locals(LocalUserType).(string)
	return t
}
