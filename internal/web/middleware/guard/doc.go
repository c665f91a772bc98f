// Package guard provides the route guard middleware of the web application.
//
// The guard runs before any page handler and decides per request:
//   - pass-through paths (api, static files, metrics, health) are never redirected
//   - protected paths without a valid session redirect to the login page
//   - auth pages with a valid session redirect to the default protected page
//   - every other path is served without looking at the session
//
// Prefixes match whole path segments, "/dashboard" matches "/dashboard" and
// "/dashboard/trips" but not "/dashboards". The session is checked with one
// call to the session client of the request, which verifies the access token
// with the identity service and refreshes it once if needed. Rotated tokens
// are already on the response when the guard redirects. A failed check
// counts as signed out.
//
// Usage:
//
//	app.Use(guard.New(guard.Config{
//	    Routes:  cfg.Routes,
//	    Session: func(c *fiber.Ctx) (*identity.Session, error) {
//	        return store.ClientFor(c).GetCurrentSession(c.UserContext())
//	    },
//	}))
package guard
