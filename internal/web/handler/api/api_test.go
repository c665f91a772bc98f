package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traveloop/traveloop/internal/datastore/gormstore"
	notificationdb "github.com/traveloop/traveloop/internal/db/controller/notification"
	"github.com/traveloop/traveloop/internal/db/controller/profile"
	"github.com/traveloop/traveloop/internal/db/controller/trip"
	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/web/handler/handlertest"
)

type fixture struct {
	env     *handlertest.Env
	user    *identity.User
	session *identity.Session
	other   *identity.Session
}

func setup(t *testing.T) *fixture {
	t.Helper()

	env := handlertest.New(t)
	user := env.Identity.AddUser("ana@example.com", "secret1", "Ana")
	env.Identity.AddUser("bo@example.com", "secret1", "Bo")

	var s Service
	require.NoError(t, s.Init(env.App, env.Deps))

	return &fixture{
		env:     env,
		user:    user,
		session: env.Identity.Issue("ana@example.com"),
		other:   env.Identity.Issue("bo@example.com"),
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal([]byte(handlertest.Body(t, resp)), &out))

	return out
}

func TestCatalog_Public(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.env.DB.Create(&models.Destination{Name: "Lisbon", Country: "Portugal"}).Error)

	resp := f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+"/destinations", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	destinations := decode[[]models.Destination](t, resp)
	require.Len(t, destinations, 1)
	assert.Equal(t, "Lisbon", destinations[0].Name)

	resp = f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+"/hotels", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.Hotel](t, resp))
}

func TestRequiresUser(t *testing.T) {
	f := setup(t)

	for _, target := range []string{"/trips", "/bookings", "/profile", "/notifications"} {
		resp := f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+target, nil), nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, handlertest.Body(t, resp))
	}
}

func TestTrips(t *testing.T) {
	f := setup(t)

	resp := f.env.Do(t, handlertest.JSON(http.MethodPost, Path+"/trips",
		`{"user_id":"forged","start_date":"2025-06-01","budget":1200,"preferences":{"pace":"relaxed","kids":true}}`), f.session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[models.Trip](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, f.user.ID, created.UserID)
	assert.Equal(t, models.TripPlanned, created.Status)
	assert.Equal(t, "relaxed", created.Preferences.Pace)
	assert.Equal(t, true, created.Preferences.Extra["kids"])

	resp = f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+"/trips", nil), f.session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Trip](t, resp), 1)

	resp = f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+"/trips", nil), f.other)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.Trip](t, resp))

	resp = f.env.Do(t, handlertest.JSON(http.MethodPatch, Path+"/trips/"+created.ID, `{"status":"ongoing"}`), f.session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.TripOngoing, decode[models.Trip](t, resp).Status)

	resp = f.env.Do(t, handlertest.JSON(http.MethodPatch, Path+"/trips/"+created.ID, `{"status":"cancelled"}`), f.other)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrips_Invalid(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "broken json", method: http.MethodPost, target: "/trips", body: `{`},
		{name: "bad date", method: http.MethodPost, target: "/trips", body: `{"start_date":"June"}`},
		{name: "negative budget", method: http.MethodPost, target: "/trips", body: `{"budget":-1}`},
		{name: "unknown status", method: http.MethodPatch, target: "/trips/x", body: `{"status":"lost"}`},
		{name: "empty patch", method: http.MethodPatch, target: "/trips/x", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.env.Do(t, handlertest.JSON(tt.method, Path+tt.target, tt.body), f.session)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, `{"error":"invalid request body"}`, handlertest.Body(t, resp))
		})
	}
}

func TestBookings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ds := gormstore.New(f.env.DB)

	mine := trip.Create(ctx, ds, &models.Trip{UserID: f.user.ID})
	require.NotNil(t, mine)

	resp := f.env.Do(t, handlertest.JSON(http.MethodPost, Path+"/bookings",
		`{"trip_id":"`+mine.ID+`","booking_type":"hotel","details":{"provider":"Stay"}}`), f.session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[models.Booking](t, resp)
	assert.Equal(t, models.BookingPending, created.Status)
	assert.Equal(t, "Stay", created.Details.Provider)

	// bookings can only be added to own trips
	resp = f.env.Do(t, handlertest.JSON(http.MethodPost, Path+"/bookings",
		`{"trip_id":"`+mine.ID+`","booking_type":"flight"}`), f.other)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.env.Do(t, handlertest.JSON(http.MethodPost, Path+"/bookings",
		`{"trip_id":"`+mine.ID+`","booking_type":"cruise"}`), f.session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+"/bookings", nil), f.session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Booking](t, resp), 1)
}

func TestProfile(t *testing.T) {
	f := setup(t)

	resp := f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+"/profile", nil), f.session)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NotNil(t, profile.Create(context.Background(), gormstore.New(f.env.DB),
		&models.Profile{ID: f.user.ID, Name: "Ana"}))

	resp = f.env.Do(t, handlertest.JSON(http.MethodPatch, Path+"/profile",
		`{"name":"Ana Silva","interests":["food"],"role":"admin"}`), f.session)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[models.Profile](t, resp)
	assert.Equal(t, "Ana Silva", updated.Name)
	assert.Equal(t, []string{"food"}, updated.Interests)
	assert.Equal(t, models.RoleUser, updated.Role, "role is not patchable")

	resp = f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+"/profile", nil), f.session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana Silva", decode[models.Profile](t, resp).Name)

	resp = f.env.Do(t, handlertest.JSON(http.MethodPatch, Path+"/profile", `{"role":"admin"}`), f.session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotifications(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ds := gormstore.New(f.env.DB)

	n := notificationdb.Create(ctx, ds, &models.Notification{UserID: f.user.ID, Content: "Trip confirmed"})
	require.NotNil(t, n)

	resp := f.env.Do(t, httptest.NewRequest(http.MethodGet, Path+"/notifications", nil), f.session)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[[]models.Notification](t, resp)
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)

	resp = f.env.Do(t, httptest.NewRequest(http.MethodPost, Path+"/notifications/"+n.ID+"/read", nil), f.other)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.env.Do(t, httptest.NewRequest(http.MethodPost, Path+"/notifications/"+n.ID+"/read", nil), f.session)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	list = notificationdb.ListForUser(ctx, ds, f.user.ID)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
}

func TestPatchValues(t *testing.T) {
	status := models.TripCompleted
	budget := 10.5

	assert.Equal(t, map[string]any{"status": "completed", "budget": 10.5},
		(&TripPatch{Status: &status, Budget: &budget}).Values())

	name := "Ana"
	assert.Equal(t, map[string]any{"name": "Ana"}, (&ProfilePatch{Name: &name}).Values())
	assert.Empty(t, (&ProfilePatch{}).Values())
}
