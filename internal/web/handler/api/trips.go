package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/db/controller/trip"
	"github.com/traveloop/traveloop/internal/db/models"
)

// TripPatch lists the trip fields a user may change.
type TripPatch struct {
	DestinationID *string                 `json:"destination_id" validate:"omitempty,max=36"`
	StartDate     *string                 `json:"start_date"     validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string                 `json:"end_date"       validate:"omitempty,datetime=2006-01-02"`
	Budget        *float64                `json:"budget"         validate:"omitempty,gte=0"`
	Status        *models.TripStatus      `json:"status"         validate:"omitempty,oneof=planned ongoing completed cancelled"`
	Preferences   *models.TripPreferences `json:"preferences"`
}

// Values returns the set fields as column values.
func (p *TripPatch) Values() map[string]any {
	values := make(map[string]any)

	if p.DestinationID != nil {
		values["destination_id"] = *p.DestinationID
	}

	if p.StartDate != nil {
		values["start_date"] = *p.StartDate
	}

	if p.EndDate != nil {
		values["end_date"] = *p.EndDate
	}

	if p.Budget != nil {
		values["budget"] = *p.Budget
	}

	if p.Status != nil {
		values["status"] = string(*p.Status)
	}

	if p.Preferences != nil {
		values["preferences"] = *p.Preferences
	}

	return values
}

// ListTrips lists the trips of the user.
func (s *Service) ListTrips(c *fiber.Ctx) error {
	return c.JSON(trip.ListForUser(c.UserContext(), s.deps.DataFor(c), user(c).ID))
}

// CreateTrip stores a new trip of the user.
func (s *Service) CreateTrip(c *fiber.Ctx) error {
	t := new(models.Trip)

	if err := c.BodyParser(t); err != nil {
		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	t.ID = ""
	t.UserID = user(c).ID
	t.Destination = nil

	if err := s.deps.Validate.Struct(t); err != nil {
		log.Debug().Err(err).Msg("trip rejected")

		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	created := trip.Create(c.UserContext(), s.deps.DataFor(c), t)
	if created == nil {
		return fail(c, fiber.StatusInternalServerError, ErrUnavailable)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateTrip changes a trip of the user.
func (s *Service) UpdateTrip(c *fiber.Ctx) error {
	patch := new(TripPatch)

	if err := c.BodyParser(patch); err != nil {
		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	if err := s.deps.Validate.Struct(patch); err != nil {
		log.Debug().Err(err).Msg("trip update rejected")

		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	values := patch.Values()
	if len(values) == 0 {
		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	updated := trip.Update(c.UserContext(), s.deps.DataFor(c), user(c).ID, c.Params("id"), values)
	if updated == nil {
		return fail(c, fiber.StatusNotFound, ErrNotFound)
	}

	return c.JSON(updated)
}

// ListBookings lists the bookings of all trips of the user.
func (s *Service) ListBookings(c *fiber.Ctx) error {
	return c.JSON(trip.ListBookingsForUser(c.UserContext(), s.deps.DataFor(c), user(c).ID))
}

// CreateBooking stores a booking for one of the user's trips.
func (s *Service) CreateBooking(c *fiber.Ctx) error {
	b := new(models.Booking)

	if err := c.BodyParser(b); err != nil {
		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	b.ID = ""
	b.Trip = nil

	if err := s.deps.Validate.Struct(b); err != nil {
		log.Debug().Err(err).Msg("booking rejected")

		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	ctx := c.UserContext()
	ds := s.deps.DataFor(c)

	if trip.Get(ctx, ds, user(c).ID, b.TripID) == nil {
		return fail(c, fiber.StatusNotFound, ErrNotFound)
	}

	created := trip.CreateBooking(ctx, ds, b)
	if created == nil {
		return fail(c, fiber.StatusInternalServerError, ErrUnavailable)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}
