package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/utils"
)

// RequireRole admits requests whose JWT role is one of roles. Admins pass every check because they
// manage all courses; requests without any role are treated as unauthenticated.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles)+1)
	for _, role := range roles {
		if normalized := normalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	allowed[models.RoleAdmin] = struct{}{}

	return func(c *fiber.Ctx) error {
		role := normalizeRole(c.Locals("user_role"))
		if role == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
