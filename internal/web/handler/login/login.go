package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/web/handler"
)

const (
	// Path is the path to the login page.
	Path = "/auth/login"

	// TemplateName is the name of the login template.
	TemplateName = "auth/login"
)

// Form is the submitted login form.
type Form struct {
	Email    string `form:"email"    json:"email"    validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, s.view(c, "", ""), handler.BaseLayout)
}

// Post handles the login form submission. The next page follows from the
// result of the sign-in, there is no waiting for the auth state.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return c.Render(TemplateName, s.view(c, "", ErrInvalidFormData.Error()), handler.BaseLayout)
	}

	if err := s.deps.Validate.Struct(form); err != nil {
		log.Debug().Err(err).Msg("login form rejected")

		return c.Render(TemplateName, s.view(c, form.Email, ErrInvalidFormData.Error()), handler.BaseLayout)
	}

	if err := auth.Use(c.UserContext()).SignIn(c.UserContext(), form.Email, form.Password); err != nil {
		return c.Render(TemplateName, s.view(c, form.Email, auth.Message(err)), handler.BaseLayout)
	}

	return c.Redirect(s.deps.Cfg.Routes.DefaultPath)
}

func (s *Service) view(c *fiber.Ctx, email, errMsg string) fiber.Map {
	m := fiber.Map{
		"Title":  s.deps.Cfg.Title,
		"Email":  email,
		"Notice": c.Query("notice"),
	}

	if errMsg != "" {
		m["error"] = errMsg
	}

	return m
}
