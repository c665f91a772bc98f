// Package register provides the sign-up page.
package register

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/web/handler"
)

const (
	// Path is the path to the register page.
	Path = "/auth/register"

	// TemplateName is the name of the register template.
	TemplateName = "auth/register"

	// NoticeConfirm is shown when the account waits for e-mail confirmation.
	NoticeConfirm = "Check your e-mail to confirm your account, then sign in."

	msgInvalidForm = "Please enter your name, a valid e-mail address and a password of at least 6 characters."
	msgMismatch    = "Passwords do not match"
)

// Form is the submitted sign-up form.
type Form struct {
	Name            string `form:"name"             json:"name"             validate:"required,max=255"`
	Email           string `form:"email"            json:"email"            validate:"required,email"`
	Password        string `form:"password"         json:"password"         validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" validate:"omitempty"`
}

// Service is the register handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the register handler.
var Handler = Service{}

// Init initializes the register handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)

	return nil
}

// Get handles the register page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, s.view(&Form{}, "", ""), handler.BaseLayout)
}

// Post creates the account. With a session the user goes to the default
// page, otherwise the page asks for the e-mail confirmation.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return c.Render(TemplateName, s.view(form, msgInvalidForm, ""), handler.BaseLayout)
	}

	if err := s.deps.Validate.Struct(form); err != nil {
		log.Debug().Err(err).Msg("register form rejected")

		return c.Render(TemplateName, s.view(form, msgInvalidForm, ""), handler.BaseLayout)
	}

	if form.ConfirmPassword != "" && form.ConfirmPassword != form.Password {
		return c.Render(TemplateName, s.view(form, msgMismatch, ""), handler.BaseLayout)
	}

	p := auth.Use(c.UserContext())

	if err := p.SignUp(c.UserContext(), form.Email, form.Password, form.Name); err != nil {
		return c.Render(TemplateName, s.view(form, auth.Message(err), ""), handler.BaseLayout)
	}

	if p.User() != nil {
		return c.Redirect(s.deps.Cfg.Routes.DefaultPath)
	}

	return c.Render(TemplateName, s.view(&Form{}, "", NoticeConfirm), handler.BaseLayout)
}

func (s *Service) view(form *Form, errMsg, notice string) fiber.Map {
	m := fiber.Map{
		"Title":  s.deps.Cfg.Title,
		"Name":   form.Name,
		"Email":  form.Email,
		"Notice": notice,
	}

	if errMsg != "" {
		m["error"] = errMsg
	}

	return m
}
