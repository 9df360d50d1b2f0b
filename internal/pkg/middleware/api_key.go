package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/pincerlabs/pincer/internal/pkg/env"
)

// APIKeyAuth authenticates requests carrying a static API key header. The
// expected key is read from the named environment variable; comparison is
// constant-time. Used for the admin surface (ADMIN_API_KEY) and the
// resource-server surface (SERVICE_API_KEY).
func APIKeyAuth(envKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := env.GetEnv(envKey, "")
		if expected == "" {
			fiberlog.Errorf("api key middleware: %s is not configured", envKey)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "misconfigured", "message": "API key not configured"})
		}

		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
		}

		return c.Next()
	}
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Get("X-API-Key")); v != "" {
		return v
	}
	// Also accept "Authorization: Bearer <key>".
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
