// Package notification provides the notification data access functions.
package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/datastore"
	"github.com/traveloop/traveloop/internal/db/models"
)

// ListForUser returns the notifications of a user, newest first.
func ListForUser(ctx context.Context, ds datastore.Client, userID string) []models.Notification {
	var out []models.Notification

	q := datastore.From(models.TableNotifications).Eq("user_id", userID).OrderBy("created_at", false)
	if err := ds.Select(ctx, q, &out); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("error fetching notifications")

		return []models.Notification{}
	}

	if out == nil {
		return []models.Notification{}
	}

	return out
}

// Create stores a notification. It returns nil on error.
func Create(ctx context.Context, ds datastore.Client, n *models.Notification) *models.Notification {
	if err := ds.Insert(ctx, models.TableNotifications, n); err != nil {
		log.Error().Err(err).Str("user", n.UserID).Msg("error creating notification")

		return nil
	}

	return n
}

// MarkAsRead flags a notification of a user as read.
func MarkAsRead(ctx context.Context, ds datastore.Client, userID, id string) error {
	var out models.Notification

	q := datastore.From(models.TableNotifications).Eq("id", id).Eq("user_id", userID)
	if err := ds.Update(ctx, q, map[string]any{"read": true}, &out); err != nil {
		return fmt.Errorf("mark notification %s as read: %w", id, err)
	}

	return nil
}
