package login

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traveloop/traveloop/internal/web/handler/handlertest"
	"github.com/traveloop/traveloop/internal/web/session"
)

func newEnv(t *testing.T) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t)
	env.Identity.AddUser("ana@example.com", "s3cr3t!", "Ana")

	var s Service
	require.NoError(t, s.Init(env.App, env.Deps))

	return env
}

func TestGet(t *testing.T) {
	env := newEnv(t)

	resp := env.Do(t, httptest.NewRequest(http.MethodGet, Path, nil), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, handlertest.Body(t, resp))
}

func TestPost_Success_SetsCookiesAndRedirects(t *testing.T) {
	env := newEnv(t)

	resp := env.Do(t, handlertest.Form(Path, url.Values{
		"email":    {"ana@example.com"},
		"password": {"s3cr3t!"},
	}), nil)

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	access, ok := handlertest.CookieValue(resp, session.CookieAccessToken)
	require.True(t, ok)
	assert.NotEmpty(t, access)

	_, ok = handlertest.CookieValue(resp, session.CookieRefreshToken)
	assert.True(t, ok)

	setCookie := strings.ToLower(strings.Join(resp.Header.Values("Set-Cookie"), ";"))
	assert.Contains(t, setCookie, "secure")
	assert.Contains(t, setCookie, "httponly")
}

func TestPost_Errors(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{
			name: "wrong password",
			form: url.Values{"email": {"ana@example.com"}, "password": {"nope"}},
			want: "Invalid login credentials",
		},
		{
			name: "unknown user",
			form: url.Values{"email": {"bo@example.com"}, "password": {"s3cr3t!"}},
			want: "Invalid login credentials",
		},
		{
			name: "missing password",
			form: url.Values{"email": {"ana@example.com"}},
			want: ErrInvalidFormData.Error(),
		},
		{
			name: "not an e-mail",
			form: url.Values{"email": {"ana"}, "password": {"s3cr3t!"}},
			want: ErrInvalidFormData.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)

			resp := env.Do(t, handlertest.Form(Path, tt.form), nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, handlertest.Body(t, resp))

			_, ok := handlertest.CookieValue(resp, session.CookieAccessToken)
			assert.False(t, ok, "no session cookie on failure")
		})
	}
}

func TestPost_InvalidBody(t *testing.T) {
	env := newEnv(t)

	resp := env.Do(t, handlertest.JSON(http.MethodPost, Path, "{"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ErrInvalidFormData.Error(), handlertest.Body(t, resp))
}

func TestPost_ServiceDown(t *testing.T) {
	env := newEnv(t)
	env.Identity.TransportErr = assert.AnError

	resp := env.Do(t, handlertest.Form(Path, url.Values{
		"email":    {"ana@example.com"},
		"password": {"s3cr3t!"},
	}), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, handlertest.Body(t, resp), "Service unavailable")
}
