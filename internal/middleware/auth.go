package middleware

import (
	"strings"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates bearer tokens and injects the claims into both the
// fiber locals and the request's user context.
func AuthMiddleware(tokens *utils.TokenManager, skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			claims := &utils.UserClaims{UserID: "dev-admin", Roles: []string{"admin"}}
			c.Locals(utils.UserClaimsKey, claims)
			c.SetUserContext(utils.WithClaims(c.UserContext(), claims))
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(common_models.Fail("Authorization header required"))
		}

		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(common_models.Fail("Invalid authorization header format"))
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(common_models.Fail("Invalid token"))
		}

		c.Locals(utils.UserClaimsKey, claims)
		c.SetUserContext(utils.WithClaims(c.UserContext(), claims))
		return c.Next()
	}
}
