package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/db/models"
)

// ProfileLookup returns the profile of a user, nil when there is none.
type ProfileLookup func(c *fiber.Ctx, userID string) (*models.Profile, error)

// RequireRole lets only users whose profile has role through.
// Anonymous users get 401, other roles 403 and lookup failures 500.
func RequireRole(lookup ProfileLookup, role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := FromContext(c.UserContext())
		if !ok || p.User() == nil {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		user := p.User()

		profile, err := lookup(c, user.ID)
		if err != nil {
			log.Error().Err(err).Str("user", user.ID).Str("role", string(role)).
				Msg("Failed to check role")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if profile == nil || profile.Role != role {
			log.Warn().Str("user", user.ID).Str("role", string(role)).
				Msg("User lacks required role")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		return c.Next()
	}
}
