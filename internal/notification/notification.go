// Package notification caches the notifications of the signed-in user.
package notification

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/datastore"
	notificationdb "github.com/traveloop/traveloop/internal/db/controller/notification"
	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/identity"
)

// Source reports the signed-in user, auth.Provider implements it.
type Source interface {
	User() *identity.User
	Subscribe(cb func(*identity.User)) func()
}

// Cache holds the notifications of one user.
type Cache struct {
	ds datastore.Client

	mu     sync.RWMutex
	userID string
	items  []models.Notification
}

// New creates an empty cache reading from ds.
func New(ds datastore.Client) *Cache {
	return &Cache{ds: ds, items: []models.Notification{}}
}

// Attach follows the user of src. A different user id triggers a refresh,
// a sign-out clears the cache. The returned function detaches.
func (c *Cache) Attach(ctx context.Context, src Source) func() {
	unsubscribe := src.Subscribe(func(u *identity.User) {
		c.setUser(ctx, u)
	})

	if u := src.User(); u != nil {
		c.setUser(ctx, u)
	}

	return unsubscribe
}

func (c *Cache) setUser(ctx context.Context, u *identity.User) {
	c.mu.Lock()

	if u == nil {
		c.userID = ""
		c.items = []models.Notification{}
		c.mu.Unlock()

		return
	}

	changed := c.userID != u.ID
	c.userID = u.ID
	c.mu.Unlock()

	if changed {
		c.Refresh(ctx)
	}
}

// Refresh replaces the cache with the stored notifications of the user.
// Without a user it does nothing.
func (c *Cache) Refresh(ctx context.Context) {
	userID := c.UserID()
	if userID == "" {
		return
	}

	list := notificationdb.ListForUser(ctx, c.ds, userID)

	c.mu.Lock()
	defer c.mu.Unlock()

	// the user may have changed during the fetch
	if c.userID == userID {
		c.items = list
	}
}

// MarkAsRead flags a notification as read once the store confirmed it.
// Failures are logged and dropped.
func (c *Cache) MarkAsRead(ctx context.Context, id string) {
	userID := c.UserID()
	if userID == "" {
		return
	}

	if err := notificationdb.MarkAsRead(ctx, c.ds, userID, id); err != nil {
		log.Warn().Err(err).Str("user", userID).Str("notification", id).Msg("error marking notification as read")

		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
		}
	}
}

// UnreadCount returns the number of unread notifications.
func (c *Cache) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0

	for _, item := range c.items {
		if !item.Read {
			n++
		}
	}

	return n
}

// Notifications returns a copy of the cache, newest first.
func (c *Cache) Notifications() []models.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.items)
}

// UserID returns the user the cache belongs to, empty when signed out.
func (c *Cache) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.userID
}
