package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traveloop/traveloop/internal/datastore/gormstore"
	"github.com/traveloop/traveloop/internal/db/controller/profile"
	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/web/handler/handlertest"
)

func TestGet_Access(t *testing.T) {
	tests := []struct {
		name       string
		role       models.Role
		signedIn   bool
		withRecord bool
		want       int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "no profile", signedIn: true, want: http.StatusForbidden},
		{name: "user", signedIn: true, withRecord: true, role: models.RoleUser, want: http.StatusForbidden},
		{name: "admin", signedIn: true, withRecord: true, role: models.RoleAdmin, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := handlertest.New(t)
			user := env.Identity.AddUser("ana@example.com", "secret1", "Ana")

			var s Service
			require.NoError(t, s.Init(env.App, env.Deps))

			if tt.withRecord {
				require.NotNil(t, profile.Create(context.Background(), gormstore.New(env.DB),
					&models.Profile{ID: user.ID, Role: tt.role}))
			}

			req := httptest.NewRequest(http.MethodGet, Path, nil)

			var resp *http.Response
			if tt.signedIn {
				resp = env.Do(t, req, env.Identity.Issue("ana@example.com"))
			} else {
				resp = env.Do(t, req, nil)
			}

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestGet_Data(t *testing.T) {
	env := handlertest.New(t)
	env.Cfg.Local.JWTSecret = "do-not-show"
	user := env.Identity.AddUser("ana@example.com", "secret1", "Ana")

	var s Service
	require.NoError(t, s.Init(env.App, env.Deps))

	require.NoError(t, env.DB.Create(&models.Destination{Name: "Lisbon", Country: "Portugal"}).Error)
	require.NotNil(t, profile.Create(context.Background(), gormstore.New(env.DB),
		&models.Profile{ID: user.ID, Role: models.RoleAdmin}))

	resp := env.Do(t, httptest.NewRequest(http.MethodGet, Path+"?search=jwt", nil), env.Identity.Issue("ana@example.com"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	name, m := env.Views.Last()
	assert.Equal(t, TemplateName, name)

	data, ok := m["Data"].(Data)
	require.True(t, ok)

	assert.Equal(t, 1, data.Destinations)
	assert.Equal(t, 0, data.Hotels)
	require.Len(t, data.Settings, 1)
	assert.Equal(t, "Local.JWTSecret", data.Settings[0].Name)
	assert.Equal(t, redacted, data.Settings[0].Value)
}

func TestFlatten(t *testing.T) {
	cfg := handlertest.Config()
	cfg.DB.Password = "hunter2"

	settings, err := Flatten(cfg)
	require.NoError(t, err)

	byName := make(map[string]Setting, len(settings))
	for _, st := range settings {
		byName[st.Name] = st
	}

	assert.Equal(t, Setting{Name: "Title", Type: "string", Value: "Traveloop"}, byName["Title"])
	assert.Equal(t, Setting{Name: "Webserver.Port", Type: "number", Value: "8080"}, byName["Webserver.Port"])
	assert.Equal(t, "list", byName["Routes.ProtectedPrefixes"].Type)
	assert.Equal(t, "/dashboard", byName["Routes.ProtectedPrefixes"].Value)
	assert.Equal(t, redacted, byName["DB.Password"].Value)

	// empty secrets stay empty
	assert.Empty(t, byName["Backend.AnonKey"].Value)

	for i := 1; i < len(settings); i++ {
		assert.Less(t, settings[i-1].Name, settings[i].Name)
	}
}

func TestPagination(t *testing.T) {
	totalPages, page := computeTotalPagesAndAdjust(51, 25, 7)
	assert.Equal(t, 3, totalPages)
	assert.Equal(t, 3, page)

	start, end := pageSliceBounds(51, 25, 3)
	assert.Equal(t, 50, start)
	assert.Equal(t, 51, end)

	totalPages, page = computeTotalPagesAndAdjust(0, 25, 1)
	assert.Equal(t, 1, totalPages)
	assert.Equal(t, 1, page)

	start, end = pageSliceBounds(0, 25, 1)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestIncludeSetting(t *testing.T) {
	assert.True(t, includeSetting(Setting{Name: "Title", Value: "Traveloop"}, ""))
	assert.True(t, includeSetting(Setting{Name: "Title", Value: "Traveloop"}, "TRAVEL"))
	assert.False(t, includeSetting(Setting{Name: "DB.Password", Value: redacted}, "*"))
}
