// Package profile provides the profile data access functions.
package profile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/datastore"
	"github.com/traveloop/traveloop/internal/db/models"
)

// Lookup returns the profile of a user. A missing profile is datastore.ErrNotFound.
func Lookup(ctx context.Context, ds datastore.Client, userID string) (*models.Profile, error) {
	var out models.Profile

	if err := ds.Get(ctx, datastore.From(models.TableProfiles).Eq("id", userID), &out); err != nil {
		return nil, fmt.Errorf("profile of %s: %w", userID, err)
	}

	return &out, nil
}

// Get returns the profile of a user or nil.
func Get(ctx context.Context, ds datastore.Client, userID string) *models.Profile {
	p, err := Lookup(ctx, ds, userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("error fetching user profile")

		return nil
	}

	return p
}

// Update changes the profile of a user and returns it, nil on error.
func Update(ctx context.Context, ds datastore.Client, userID string, values map[string]any) *models.Profile {
	var out models.Profile

	if err := ds.Update(ctx, datastore.From(models.TableProfiles).Eq("id", userID), values, &out); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("error updating user profile")

		return nil
	}

	return &out
}

// Create stores the profile of a new user. It returns nil on error.
func Create(ctx context.Context, ds datastore.Client, p *models.Profile) *models.Profile {
	if err := ds.Insert(ctx, models.TableProfiles, p); err != nil {
		log.Error().Err(err).Str("user", p.ID).Msg("error creating user profile")

		return nil
	}

	return p
}
