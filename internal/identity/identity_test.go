package identity_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traveloop/traveloop/internal/identity"
)

func TestMetadataJSON(t *testing.T) {
	var m identity.Metadata

	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ana","avatar_url":"https://x/a.png","locale":"pt"}`), &m))
	assert.Equal(t, "Ana", m.Name)
	assert.Equal(t, "https://x/a.png", m.AvatarURL)
	assert.Equal(t, map[string]any{"locale": "pt"}, m.Extra)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ana","avatar_url":"https://x/a.png","locale":"pt"}`, string(out))

	out, err = json.Marshal(identity.Metadata{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}

func TestDisplayName(t *testing.T) {
	var nilUser *identity.User
	assert.Empty(t, nilUser.DisplayName())
	assert.Equal(t, "ana@example.com", (&identity.User{Email: "ana@example.com"}).DisplayName())
	assert.Equal(t, "Ana", (&identity.User{Email: "ana@example.com", UserMetadata: identity.Metadata{Name: "Ana"}}).DisplayName())
}

func TestExpiryFromToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	assert.Equal(t, exp.Unix(), identity.ExpiryFromToken(tok))
	assert.Zero(t, identity.ExpiryFromToken(""))
	assert.Zero(t, identity.ExpiryFromToken("opaque-token"))
}

func TestIsRejected(t *testing.T) {
	assert.True(t, identity.IsRejected(identity.ErrInvalidToken))
	assert.True(t, identity.IsRejected(&identity.APIError{StatusCode: 401}))
	assert.False(t, identity.IsRejected(&identity.APIError{StatusCode: 503}))
	assert.False(t, identity.IsRejected(errors.New("dial tcp: timeout")))
}

func TestSessionTokens(t *testing.T) {
	s := &identity.Session{AccessToken: "a", RefreshToken: "r", ExpiresIn: 60}
	tok := s.Tokens()

	assert.Equal(t, "a", tok.AccessToken)
	assert.InDelta(t, time.Now().Unix()+60, tok.ExpiresAt, 2)

	var nilSession *identity.Session
	assert.True(t, nilSession.Tokens().Empty())
}
