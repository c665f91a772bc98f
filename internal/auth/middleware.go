package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Middleware creates one Provider per request from the session client the
// factory returns, initializes it and installs it into the user context and
// the Locals. The Provider is closed when the request is done.
func Middleware(factory func(c *fiber.Ctx) SessionClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := New(factory(c))
		defer p.Close()

		if err := p.Initialize(c.UserContext()); err != nil {
			log.Warn().Err(err).Str("path", c.Path()).Msg("auth state unavailable, continuing signed out")
		}

		c.SetUserContext(WithProvider(c.UserContext(), p))
		c.Locals(LocalsKey, p)

		return c.Next()
	}
}

// RequireUser answers 401 when nobody is signed in.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p, ok := FromContext(c.UserContext()); ok && p.User() != nil {
			return c.Next()
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
}
