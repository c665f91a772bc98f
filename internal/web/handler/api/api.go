// Package api provides the JSON API of the web application.
//
// Catalog reads are public, everything else acts as the signed-in user.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/db/controller/catalog"
	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/web/handler"
)

// Path is the root of the API.
const Path = "/api"

var (
	// ErrInvalidBody is answered for bodies that can not be parsed or fail validation.
	ErrInvalidBody = errors.New("invalid request body")

	// ErrNotFound is answered for unknown or foreign records.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is answered when the data service failed.
	ErrUnavailable = errors.New("data service unavailable")
)

// Service is the API handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the API handler.
var Handler = Service{}

// Init registers the API routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Get("/destinations", s.Destinations)
		router.Get("/hotels", s.Hotels)

		user := router.Group("", auth.RequireUser())

		user.Get("/trips", s.ListTrips)
		user.Post("/trips", s.CreateTrip)
		user.Patch("/trips/:id", s.UpdateTrip)

		user.Get("/bookings", s.ListBookings)
		user.Post("/bookings", s.CreateBooking)

		user.Get("/profile", s.GetProfile)
		user.Patch("/profile", s.UpdateProfile)

		user.Get("/notifications", s.ListNotifications)
		user.Post("/notifications/:id/read", s.MarkNotificationRead)
	})

	return nil
}

// Destinations lists the destination catalog.
func (s *Service) Destinations(c *fiber.Ctx) error {
	return c.JSON(catalog.Destinations(c.UserContext(), s.deps.DataFor(c)))
}

// Hotels lists the hotel catalog.
func (s *Service) Hotels(c *fiber.Ctx) error {
	return c.JSON(catalog.Hotels(c.UserContext(), s.deps.DataFor(c)))
}

// user returns the signed-in user, RequireUser guarantees one.
func user(c *fiber.Ctx) *identity.User {
	return auth.Use(c.UserContext()).User()
}

func fail(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
