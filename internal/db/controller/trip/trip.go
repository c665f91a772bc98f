// Package trip provides the trip and booking data access functions.
// Every function is scoped to one user.
package trip

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/datastore"
	"github.com/traveloop/traveloop/internal/db/models"
)

const (
	colID        = "id"
	colUserID    = "user_id"
	colTripID    = "trip_id"
	colCreatedAt = "created_at"
)

// ListForUser returns the trips of a user with their destination, newest first.
func ListForUser(ctx context.Context, ds datastore.Client, userID string) []models.Trip {
	var out []models.Trip

	q := datastore.From(models.TableTrips).
		Eq(colUserID, userID).
		Embed("destination", models.TableDestinations, "Destination").
		OrderBy(colCreatedAt, false)

	if err := ds.Select(ctx, q, &out); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("error fetching user trips")

		return []models.Trip{}
	}

	if out == nil {
		return []models.Trip{}
	}

	return out
}

// Get returns one trip of a user or nil.
func Get(ctx context.Context, ds datastore.Client, userID, id string) *models.Trip {
	var out models.Trip

	q := datastore.From(models.TableTrips).Eq(colID, id).Eq(colUserID, userID)
	if err := ds.Get(ctx, q, &out); err != nil {
		log.Debug().Err(err).Str("user", userID).Str("trip", id).Msg("trip not found")

		return nil
	}

	return &out
}

// Create stores a new trip for t.UserID. It returns nil on error.
func Create(ctx context.Context, ds datastore.Client, t *models.Trip) *models.Trip {
	if err := ds.Insert(ctx, models.TableTrips, t); err != nil {
		log.Error().Err(err).Str("user", t.UserID).Msg("error creating trip")

		return nil
	}

	return t
}

// Update changes a trip of a user and returns the updated trip or nil.
func Update(ctx context.Context, ds datastore.Client, userID, id string, values map[string]any) *models.Trip {
	var out models.Trip

	q := datastore.From(models.TableTrips).Eq(colID, id).Eq(colUserID, userID)
	if err := ds.Update(ctx, q, values, &out); err != nil {
		log.Error().Err(err).Str("user", userID).Str("trip", id).Msg("error updating trip")

		return nil
	}

	return &out
}

// ListBookingsForUser returns the bookings of all trips of a user, newest first.
// The trips are read first, then the bookings with trip_id in that set.
func ListBookingsForUser(ctx context.Context, ds datastore.Client, userID string) []models.Booking {
	var trips []models.Trip

	if err := ds.Select(ctx, datastore.From(models.TableTrips).Eq(colUserID, userID), &trips); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("error fetching user bookings")

		return []models.Booking{}
	}

	if len(trips) == 0 {
		return []models.Booking{}
	}

	ids := make([]string, 0, len(trips))
	for _, t := range trips {
		ids = append(ids, t.ID)
	}

	var out []models.Booking

	q := datastore.From(models.TableBookings).
		In(colTripID, ids).
		Embed("trip", models.TableTrips, "Trip").
		OrderBy(colCreatedAt, false)

	if err := ds.Select(ctx, q, &out); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("error fetching user bookings")

		return []models.Booking{}
	}

	if out == nil {
		return []models.Booking{}
	}

	return out
}

// CreateBooking stores a booking. It returns nil on error.
func CreateBooking(ctx context.Context, ds datastore.Client, b *models.Booking) *models.Booking {
	if err := ds.Insert(ctx, models.TableBookings, b); err != nil {
		log.Error().Err(err).Str("trip", b.TripID).Msg("error creating booking")

		return nil
	}

	return b
}
