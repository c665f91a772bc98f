package guard

import (
	"path"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/identity"
)

// Area is the kind of path a request targets.
type Area int

const (
	AreaOther Area = iota
	AreaPassThrough
	AreaProtected
	AreaAuth
)

// Decision is the outcome of the guard for one request.
type Decision int

const (
	PassThrough Decision = iota
	Allow
	RedirectToLogin
	RedirectToDefault
)

func (d Decision) String() string {
	switch d {
	case PassThrough:
		return "pass_through"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToDefault:
		return "redirect_default"
	default:
		return "unknown"
	}
}

var (
	decisions     *prometheus.CounterVec //nolint:gochecknoglobals
	decisionsOnce sync.Once              //nolint:gochecknoglobals
)

func decisionCounter() *prometheus.CounterVec {
	decisionsOnce.Do(func() {
		decisions = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "traveloop",
				Name:      "route_guard_decisions_total",
				Help:      "Number of route guard decisions, differentiated by outcome.",
			},
			[]string{"decision"},
		)
	})

	return decisions
}

// Config of the guard.
type Config struct {
	// Next skips the guard when it returns true.
	Next func(c *fiber.Ctx) bool

	Routes config.Routes

	// Session returns the verified session of the request or nil.
	Session func(c *fiber.Ctx) (*identity.Session, error)
}

// HasPrefix reports whether p is prefix or below it.
func HasPrefix(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}

	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Normalize lower-cases and cleans a request path.
func Normalize(p string) string {
	if p == "" {
		return "/"
	}

	return path.Clean("/" + strings.ToLower(p))
}

// Classify returns the area of a normalized path. Pass-through wins over
// protected, protected wins over auth.
func Classify(routes config.Routes, p string) Area {
	for _, list := range []struct {
		prefixes []string
		area     Area
	}{
		{routes.PassThroughPrefixes, AreaPassThrough},
		{routes.ProtectedPrefixes, AreaProtected},
		{routes.AuthPrefixes, AreaAuth},
	} {
		for _, prefix := range list.prefixes {
			if HasPrefix(p, Normalize(prefix)) {
				return list.area
			}
		}
	}

	return AreaOther
}

// NeedsSession reports whether the decision for area depends on the session.
func NeedsSession(area Area, redirectAuthenticated bool) bool {
	return area == AreaProtected || (area == AreaAuth && redirectAuthenticated)
}

// Decide maps an area and the session state to a decision.
func Decide(area Area, signedIn, redirectAuthenticated bool) Decision {
	switch area {
	case AreaPassThrough:
		return PassThrough
	case AreaProtected:
		if !signedIn {
			return RedirectToLogin
		}
	case AreaAuth:
		if signedIn && redirectAuthenticated {
			return RedirectToDefault
		}
	case AreaOther:
	}

	return Allow
}

// New creates the guard middleware.
func New(cfg Config) fiber.Handler {
	counter := decisionCounter()

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		p := Normalize(c.Path())
		area := Classify(cfg.Routes, p)
		signedIn := false

		if NeedsSession(area, cfg.Routes.RedirectAuthenticated) && cfg.Session != nil {
			s, err := cfg.Session(c)
			if err != nil {
				log.Warn().Err(err).Str("path", p).Msg("session check failed, treating request as signed out")
			}

			signedIn = err == nil && s != nil
		}

		d := Decide(area, signedIn, cfg.Routes.RedirectAuthenticated)
		counter.WithLabelValues(d.String()).Inc()

		log.Debug().Str("path", p).Str("decision", d.String()).Bool("signed_in", signedIn).Msg("route guard")

		switch d {
		case RedirectToLogin:
			return c.Redirect(cfg.Routes.LoginPath)
		case RedirectToDefault:
			return c.Redirect(cfg.Routes.DefaultPath)
		case PassThrough, Allow:
		}

		return c.Next()
	}
}
