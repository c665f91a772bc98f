// Package dashboard provides the dashboard of the signed-in user.
package dashboard

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/db/controller/profile"
	"github.com/traveloop/traveloop/internal/db/controller/trip"
	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/notification"
	"github.com/traveloop/traveloop/internal/web/handler"
	"github.com/traveloop/traveloop/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.RootPath + "dashboard"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"

	// ReadPath marks a notification as read.
	ReadPath = Path + "/notifications/:id/read"
)

// Data represents the complete dashboard data.
type Data struct {
	User          *identity.User
	DisplayName   string
	Profile       *models.Profile
	Trips         []models.Trip
	Bookings      []models.Booking
	Notifications []models.Notification
	UnreadCount   int
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, s.Get)
	app.Post(ReadPath, s.MarkAsRead)

	return nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := auth.Use(ctx)

	user := p.User()
	if user == nil {
		return c.Redirect(s.deps.Cfg.Routes.LoginPath)
	}

	ds := s.deps.DataFor(c)

	cache := notification.New(ds)
	detach := cache.Attach(ctx, p)

	defer detach()

	prof := profile.Get(ctx, ds, user.ID)

	data := Data{
		User:          user,
		DisplayName:   user.DisplayName(),
		Profile:       prof,
		Trips:         trip.ListForUser(ctx, ds, user.ID),
		Bookings:      trip.ListBookingsForUser(ctx, ds, user.ID),
		Notifications: cache.Notifications(),
		UnreadCount:   cache.UnreadCount(),
	}

	if prof != nil && prof.Name != "" {
		data.DisplayName = prof.Name
	}

	nav := navigation.NewContext("Dashboard", navigation.SectionDashboard, "overview").
		AddBreadcrumb("Home", handler.RootPath, false).
		AddBreadcrumb("Dashboard", Path, true).
		WithMenu(Path, prof.IsAdmin())

	log.Debug().
		Str("user", user.ID).
		Int("trips", len(data.Trips)).
		Int("bookings", len(data.Bookings)).
		Int("unread", data.UnreadCount).
		Msg("dashboard data retrieved")

	return c.Render(TemplateName, fiber.Map{
		"Title":      s.deps.Cfg.Title,
		"Navigation": nav,
		"Data":       data,
	}, handler.BaseLayout)
}

// MarkAsRead flags one notification as read and returns to the dashboard.
func (s *Service) MarkAsRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := auth.Use(ctx)

	if p.User() == nil {
		return c.Redirect(s.deps.Cfg.Routes.LoginPath)
	}

	cache := notification.New(s.deps.DataFor(c))
	detach := cache.Attach(ctx, p)

	defer detach()

	cache.MarkAsRead(ctx, c.Params("id"))

	return c.Redirect(Path)
}
