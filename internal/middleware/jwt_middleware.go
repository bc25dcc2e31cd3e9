package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"vidhub/internal/apierr"
	"vidhub/internal/response"
	"vidhub/internal/services"
)

// AuthRequired is a Fiber middleware that checks for a valid access token.
// The token is taken from the accessToken cookie, or from an
// "Authorization: Bearer <token>" header for non-cookie clients.
func AuthRequired(tokenService *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies("accessToken")
		if tokenString == "" {
			authHeader := c.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return response.Fail(c, apierr.Unauthorized("Unauthorized request"))
		}

		userID, err := tokenService.VerifyAccessToken(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return response.Fail(c, apierr.Unauthorized("Invalid or expired token"))
		}

		// Store the subject in the Fiber context for subsequent handlers
		c.Locals("user_id", userID)

		return c.Next()
	}
}
