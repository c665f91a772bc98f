package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/datastore/gormstore"
	"github.com/traveloop/traveloop/internal/db/controller/profile"
	"github.com/traveloop/traveloop/internal/db/dbtest"
	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/identity/local"
)

func localConfig() *config.Config {
	return &config.Config{
		Title: "Traveloop",
		Backend: config.Backend{
			Mode: config.ModeLocal,
		},
		Local: config.Local{
			JWTSecret:     "test-secret",
			AutoConfirm:   true,
			Seed:          true,
			AdminEmail:    "Admin@Example.com",
			AdminPassword: "changeme",
		},
		DB: config.DB{Driver: config.DriverSQLite, Path: ":memory:"},
		Routes: config.Routes{
			ProtectedPrefixes:     []string{"/dashboard"},
			AuthPrefixes:          []string{"/auth"},
			PassThroughPrefixes:   []string{"/api", "/static", "/metrics", "/healthz"},
			LoginPath:             "/auth/login",
			DefaultPath:           "/dashboard",
			RedirectAuthenticated: true,
		},
		Webserver: config.Webserver{
			Port:         8080,
			URL:          "http://localhost:8080",
			ShutDownTime: 1,
			Session:      config.Session{CookieMaxAge: time.Hour, RefreshMargin: time.Minute, SameSite: "Lax"},
		},
	}
}

func TestSeed(t *testing.T) {
	gdb := dbtest.Open(t)
	cfg := localConfig()

	require.NoError(t, seed(context.Background(), cfg, gdb))
	require.NoError(t, seed(context.Background(), cfg, gdb), "seeding twice is a no-op")

	var destinations, hotels, accounts int64
	require.NoError(t, gdb.Model(&models.Destination{}).Count(&destinations).Error)
	require.NoError(t, gdb.Model(&models.Hotel{}).Count(&hotels).Error)
	require.NoError(t, gdb.Model(&models.Account{}).Count(&accounts).Error)

	assert.EqualValues(t, 3, destinations)
	assert.EqualValues(t, 3, hotels)
	assert.EqualValues(t, 1, accounts)

	backend := local.New(gdb, local.Config{JWTSecret: []byte(cfg.Local.JWTSecret)})

	s, err := backend.SignInWithPassword(context.Background(), "admin@example.com", "changeme")
	require.NoError(t, err)

	p := profile.Get(context.Background(), gormstore.New(gdb), s.User.ID)
	require.NotNil(t, p)
	assert.True(t, p.IsAdmin())
}

func TestSeed_AdminPasswordTooShort(t *testing.T) {
	cfg := localConfig()
	cfg.Local.AdminPassword = "123"

	require.ErrorIs(t, seed(context.Background(), cfg, dbtest.Open(t)), ErrAdminPassword)
}

func TestSeed_Disabled(t *testing.T) {
	gdb := dbtest.Open(t)
	cfg := localConfig()
	cfg.Local.Seed = false
	cfg.Local.AdminEmail = ""

	require.NoError(t, seed(context.Background(), cfg, gdb))

	var count int64
	require.NoError(t, gdb.Model(&models.Destination{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateProfile_OnSignUp(t *testing.T) {
	gdb := dbtest.Open(t)
	backend := local.New(gdb, local.Config{
		JWTSecret:   []byte("test-secret"),
		AutoConfirm: true,
		AfterSignUp: createProfile,
	})

	s, u, err := backend.SignUp(context.Background(), "bo@example.com", "secret1", identity.Metadata{Name: "Bo"})
	require.NoError(t, err)
	require.NotNil(t, s)

	p := profile.Get(context.Background(), gormstore.New(gdb), u.ID)
	require.NotNil(t, p)
	assert.Equal(t, "Bo", p.Name)
	assert.Equal(t, "bo@example.com", p.Email)
	assert.Equal(t, models.RoleUser, p.Role)
}

func TestNew_LocalMode(t *testing.T) {
	d, err := New(localConfig())
	require.NoError(t, err)

	resp, err := d.webService.App.Test(httptest.NewRequest(http.MethodGet, "/api/destinations", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = d.webService.App.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestNew_HostedMode(t *testing.T) {
	cfg := localConfig()
	cfg.Backend = config.Backend{Mode: config.ModeHosted, URL: "http://127.0.0.1:1", AnonKey: "anon", Timeout: time.Second}

	d, err := New(cfg)
	require.NoError(t, err)

	resp, err := d.webService.App.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
