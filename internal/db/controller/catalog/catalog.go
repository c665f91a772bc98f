// Package catalog reads the public destination and hotel catalog.
package catalog

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/datastore"
	"github.com/traveloop/traveloop/internal/db/models"
)

// Destinations returns all destinations, newest first. Errors yield an empty list.
func Destinations(ctx context.Context, ds datastore.Client) []models.Destination {
	var out []models.Destination

	q := datastore.From(models.TableDestinations).OrderBy("created_at", false)
	if err := ds.Select(ctx, q, &out); err != nil {
		log.Warn().Err(err).Msg("error fetching destinations, using empty fallback")

		return []models.Destination{}
	}

	if out == nil {
		return []models.Destination{}
	}

	return out
}

// Hotels returns all hotels, best rated first. Errors yield an empty list.
func Hotels(ctx context.Context, ds datastore.Client) []models.Hotel {
	var out []models.Hotel

	q := datastore.From(models.TableHotels).OrderBy("rating", false)
	if err := ds.Select(ctx, q, &out); err != nil {
		log.Warn().Err(err).Msg("error fetching hotels, using empty fallback")

		return []models.Hotel{}
	}

	if out == nil {
		return []models.Hotel{}
	}

	return out
}
