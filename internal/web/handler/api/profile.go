package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/db/controller/profile"
	"github.com/traveloop/traveloop/internal/db/models"
)

// ProfilePatch lists the profile fields a user may change. The role is not one of them.
type ProfilePatch struct {
	Name        *string                    `json:"name"        validate:"omitempty,max=255"`
	Preferences *models.ProfilePreferences `json:"preferences"`
	Interests   []string                   `json:"interests"   validate:"omitempty,max=20,dive,min=1,max=50"`
}

// Values returns the set fields as column values.
func (p *ProfilePatch) Values() map[string]any {
	values := make(map[string]any)

	if p.Name != nil {
		values["name"] = *p.Name
	}

	if p.Preferences != nil {
		values["preferences"] = *p.Preferences
	}

	if p.Interests != nil {
		values["interests"] = p.Interests
	}

	return values
}

// GetProfile returns the profile of the user.
func (s *Service) GetProfile(c *fiber.Ctx) error {
	p := profile.Get(c.UserContext(), s.deps.DataFor(c), user(c).ID)
	if p == nil {
		return fail(c, fiber.StatusNotFound, ErrNotFound)
	}

	return c.JSON(p)
}

// UpdateProfile changes the profile of the user.
func (s *Service) UpdateProfile(c *fiber.Ctx) error {
	patch := new(ProfilePatch)

	if err := c.BodyParser(patch); err != nil {
		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	if err := s.deps.Validate.Struct(patch); err != nil {
		log.Debug().Err(err).Msg("profile update rejected")

		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	values := patch.Values()
	if len(values) == 0 {
		return fail(c, fiber.StatusBadRequest, ErrInvalidBody)
	}

	p := profile.Update(c.UserContext(), s.deps.DataFor(c), user(c).ID, values)
	if p == nil {
		return fail(c, fiber.StatusNotFound, ErrNotFound)
	}

	return c.JSON(p)
}
