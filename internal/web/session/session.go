// Package session keeps the tokens of a browser session in cookies.
package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/identity"
)

// Cookie names.
const (
	CookieAccessToken  = "tl-access-token"
	CookieRefreshToken = "tl-refresh-token"
	CookieExpiresAt    = "tl-expires-at"
)

const localsClient = "session.client"

// Config of the token cookies.
type Config struct {
	MaxAge        time.Duration
	SameSite      string
	Secure        bool
	RefreshMargin time.Duration
}

// ConfigFrom takes the cookie settings from the service configuration.
// Cookies are only sent over https outside of dev mode.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		MaxAge:        cfg.Webserver.Session.CookieMaxAge,
		SameSite:      cfg.Webserver.Session.SameSite,
		Secure:        !cfg.DevMode,
		RefreshMargin: cfg.Webserver.Session.RefreshMargin,
	}
}

// Store hands out the session client of a request.
type Store struct {
	provider identity.Provider
	cfg      Config
}

// New creates a Store over the identity service.
func New(provider identity.Provider, cfg Config) *Store {
	if cfg.SameSite == "" {
		cfg.SameSite = fiber.CookieSameSiteLaxMode
	}

	return &Store{provider: provider, cfg: cfg}
}

// ClientFor returns the session client of the request. The guard, the auth
// middleware and the handlers of one request share it.
func (s *Store) ClientFor(c *fiber.Ctx) *identity.Client {
	if client, ok := c.Locals(localsClient).(*identity.Client); ok {
		return client
	}

	client := identity.NewClient(s.provider, s.Cookies(c), identity.WithRefreshMargin(s.cfg.RefreshMargin))
	c.Locals(localsClient, client)

	return client
}

// Cookies returns the token store of the request.
func (s *Store) Cookies(c *fiber.Ctx) *CookieStore {
	return &CookieStore{c: c, cfg: s.cfg}
}

// CookieStore is an identity.TokenStore on the cookies of one request.
// Saved tokens are written to the response and win over the request cookies.
type CookieStore struct {
	c   *fiber.Ctx
	cfg Config

	mu      sync.Mutex
	written bool
	tokens  identity.Tokens
}

// Load implements identity.TokenStore.
func (s *CookieStore) Load() (identity.Tokens, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.written {
		return s.tokens, !s.tokens.Empty()
	}

	t := identity.Tokens{
		AccessToken:  s.c.Cookies(CookieAccessToken),
		RefreshToken: s.c.Cookies(CookieRefreshToken),
	}

	if exp, err := strconv.ParseInt(s.c.Cookies(CookieExpiresAt), 10, 64); err == nil {
		t.ExpiresAt = exp
	}

	return t, !t.Empty()
}

// Save implements identity.TokenStore.
func (s *CookieStore) Save(t identity.Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.written = true
	s.tokens = t

	expires := time.Now().Add(s.cfg.MaxAge)

	s.set(CookieAccessToken, t.AccessToken, expires)
	s.set(CookieRefreshToken, t.RefreshToken, expires)
	s.set(CookieExpiresAt, strconv.FormatInt(t.ExpiresAt, 10), expires)
}

// Clear implements identity.TokenStore.
func (s *CookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.written = true
	s.tokens = identity.Tokens{}

	for _, name := range []string{CookieAccessToken, CookieRefreshToken, CookieExpiresAt} {
		s.set(name, "", time.Unix(0, 0))
	}
}

func (s *CookieStore) set(name, value string, expires time.Time) {
	s.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   s.cfg.Secure,
		HTTPOnly: true,
		SameSite: s.cfg.SameSite,
	})
}

var _ identity.TokenStore = (*CookieStore)(nil)
