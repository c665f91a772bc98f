// Package logout ends the browser session.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/web/handler"
)

// Path is the path of the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout revokes the session, clears the cookies and goes to the login page.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := auth.Use(c.UserContext()).SignOut(c.UserContext()); err != nil {
		log.Error().Err(err).Msg("failed to sign out")
	}

	return c.Redirect(s.deps.Cfg.Routes.LoginPath)
}
