// Package handlertest wires handlers to an in-memory backend for tests.
package handlertest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/datastore/gormstore"
	"github.com/traveloop/traveloop/internal/db/dbtest"
	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/identity/identitytest"
	"github.com/traveloop/traveloop/internal/web/handler"
	"github.com/traveloop/traveloop/internal/web/session"
)

// Views is a minimal Fiber Views engine. It writes the "error" or
// "Notice" field of the data if set and the template name otherwise.
// The last rendered template is kept for assertions.
type Views struct {
	mu   sync.Mutex
	name string
	data any
}

// Load implements fiber.Views.
func (*Views) Load() error { return nil }

// Render implements fiber.Views.
func (v *Views) Render(w io.Writer, name string, data any, _ ...string) error {
	v.mu.Lock()
	v.name, v.data = name, data
	v.mu.Unlock()

	if m, ok := data.(fiber.Map); ok {
		for _, key := range []string{"error", "Notice"} {
			if s, exists := m[key].(string); exists && s != "" {
				_, _ = io.WriteString(w, s)

				return nil
			}
		}
	}

	_, _ = io.WriteString(w, name)

	return nil
}

// Last returns the name and the data of the last render.
func (v *Views) Last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	m, _ := v.data.(fiber.Map)

	return v.name, m
}

// Env is a fiber app with the auth middleware on a fake identity service
// and an in-memory database.
type Env struct {
	App      *fiber.App
	Views    *Views
	Cfg      *config.Config
	DB       *gorm.DB
	Identity *identitytest.Fake
	Deps     *handler.Deps
}

// Config returns a configuration with the default routes.
func Config() *config.Config {
	return &config.Config{
		Title: "Traveloop",
		Routes: config.Routes{
			ProtectedPrefixes:     []string{"/dashboard"},
			AuthPrefixes:          []string{"/auth"},
			PassThroughPrefixes:   []string{"/api", "/static", "/metrics", "/healthz"},
			LoginPath:             "/auth/login",
			DefaultPath:           "/dashboard",
			RedirectAuthenticated: true,
		},
		Webserver: config.Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
			Session: config.Session{
				CookieMaxAge:  time.Hour,
				RefreshMargin: time.Minute,
				SameSite:      "Lax",
			},
		},
	}
}

// New creates the environment. Handlers are registered by the caller.
func New(t *testing.T) *Env {
	t.Helper()

	cfg := Config()
	db := dbtest.Open(t)
	fake := identitytest.New()
	sessions := session.New(fake, session.ConfigFrom(cfg))

	views := &Views{}
	app := fiber.New(fiber.Config{Views: views})
	app.Use(auth.Middleware(func(c *fiber.Ctx) auth.SessionClient {
		return sessions.ClientFor(c)
	}))

	return &Env{
		App:      app,
		Views:    views,
		Cfg:      cfg,
		DB:       db,
		Identity: fake,
		Deps: &handler.Deps{
			Cfg:      cfg,
			Data:     gormstore.New(db),
			Validate: validator.New(),
		},
	}
}

// Cookies returns the session cookies of s.
func Cookies(s *identity.Session) []*http.Cookie {
	return []*http.Cookie{
		{Name: session.CookieAccessToken, Value: s.AccessToken},
		{Name: session.CookieRefreshToken, Value: s.RefreshToken},
	}
}

// Do sends req, adding the cookies of s when set.
func (e *Env) Do(t *testing.T, req *http.Request, s *identity.Session) *http.Response {
	t.Helper()

	if s != nil {
		for _, c := range Cookies(s) {
			req.AddCookie(c)
		}
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	return resp
}

// Form builds a form post.
func Form(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return req
}

// JSON builds a request with a JSON body.
func JSON(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

// Body reads and closes the response body.
func Body(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}

// CookieValue returns the value of a Set-Cookie of the response.
func CookieValue(resp *http.Response, name string) (string, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}

	return "", false
}
