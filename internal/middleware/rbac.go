package middleware

import (
	"slices"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireRole lets the request through when the token carries one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(common_models.Fail("Unauthorized"))
		}

		for _, role := range claims.Roles {
			if slices.Contains(roles, role) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(common_models.Fail("Forbidden: insufficient role"))
	}
}
