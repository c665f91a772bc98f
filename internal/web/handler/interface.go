package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/datastore"
	"github.com/traveloop/traveloop/internal/db/controller/profile"
	"github.com/traveloop/traveloop/internal/db/models"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}

// Deps are shared by all handlers.
type Deps struct {
	Cfg      *config.Config
	Data     datastore.Client
	Validate *validator.Validate
}

// Valid reports whether the handler dependencies are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.Data != nil && d.Validate != nil
}

// DataFor returns the data client of the request, acting as the signed-in user.
func (d *Deps) DataFor(c *fiber.Ctx) datastore.Client {
	p, ok := auth.FromContext(c.UserContext())
	if !ok {
		return d.Data
	}

	if s := p.Session(); s != nil {
		return d.Data.WithAccessToken(s.AccessToken)
	}

	return d.Data
}

// ProfileLookup reads profiles for auth.RequireRole as the signed-in user.
// A missing profile is not an error.
func (d *Deps) ProfileLookup() auth.ProfileLookup {
	return func(c *fiber.Ctx, userID string) (*models.Profile, error) {
		p, err := profile.Lookup(c.UserContext(), d.DataFor(c), userID)
		if errors.Is(err, datastore.ErrNotFound) {
			return nil, nil
		}

		return p, err //nolint:wrapcheck
	}
}
