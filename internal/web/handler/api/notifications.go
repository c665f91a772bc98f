package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/traveloop/traveloop/internal/datastore"
	"github.com/traveloop/traveloop/internal/db/controller/notification"
)

// ListNotifications lists the notifications of the user, newest first.
func (s *Service) ListNotifications(c *fiber.Ctx) error {
	return c.JSON(notification.ListForUser(c.UserContext(), s.deps.DataFor(c), user(c).ID))
}

// MarkNotificationRead flags one notification of the user as read.
func (s *Service) MarkNotificationRead(c *fiber.Ctx) error {
	err := notification.MarkAsRead(c.UserContext(), s.deps.DataFor(c), user(c).ID, c.Params("id"))

	switch {
	case err == nil:
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, datastore.ErrNotFound):
		return fail(c, fiber.StatusNotFound, ErrNotFound)
	default:
		return fail(c, fiber.StatusInternalServerError, ErrUnavailable)
	}
}
