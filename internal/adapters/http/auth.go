package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wanderlust/internal/core/ports"
)

const userIDLocal = "user_id"

// AuthMiddleware requires a valid bearer token and stores the caller's user
// ID for handlers. It rejects before any handler runs.
func AuthMiddleware(verifier ports.IdentityVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return errUnauthorized(c, "No authorization header")
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return errUnauthorized(c, "Invalid authorization header")
		}
		if verifier == nil {
			return errUnauthorized(c, "Unauthorized")
		}

		userID, err := verifier.Verify(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			LoggerFromCtx(c.UserContext()).Info("rejected bearer token", "error", err)
			return errUnauthorized(c, "Unauthorized")
		}

		c.Locals(userIDLocal, userID)
		return c.Next()
	}
}

// UserID returns the authenticated caller, or "" on unauthenticated routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDLocal).(string)
	return id
}
