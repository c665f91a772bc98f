// Package auth holds the authentication state of one browser session.
//
// A Provider is created per request over the session client of that
// request. It is the single writer of the signed-in user, every reader
// goes through User, Session or a Subscribe callback.
//
// # Lifecycle
//
// Initialize subscribes to the session client first and fetches the current
// session afterwards. A change event that arrives during the fetch wins over
// the fetched value. Close releases the subscription, it is safe to call
// more than once.
//
// # Operations
//
//   - SignIn, SignUp and SignOut delegate to the session client.
//   - Failures come back as *Error with a message that can be shown to the user.
//   - The Provider never navigates, the handlers decide where to go next.
//
// # Middleware
//
// Middleware installs a Provider into the request context, handlers read it
// with Use or FromContext:
//
//	app.Use(auth.Middleware(func(c *fiber.Ctx) auth.SessionClient {
//	    return store.ClientFor(c)
//	}))
//
//	app.Get("/api/trips", auth.RequireUser(), handler)
//	app.Get("/dashboard/admin", auth.RequireRole(lookup, models.RoleAdmin), handler)
package auth
