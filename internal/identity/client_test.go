package identity_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/identity/identitytest"
)

type recorder struct {
	mu     sync.Mutex
	events []identity.Event
}

func (r *recorder) record(e identity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *recorder) types() []identity.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]identity.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}

	return out
}

func TestGetCurrentSession_NoTokens(t *testing.T) {
	fake := identitytest.New()
	c := identity.NewClient(fake, nil)

	s, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, 0, fake.Calls("GetUser"))
}

func TestGetCurrentSession_VerifiesAndMemoizes(t *testing.T) {
	fake := identitytest.New()
	user := fake.AddUser("ana@example.com", "secret123", "Ana")
	issued := fake.Issue("ana@example.com")

	c := identity.NewClient(fake, identity.NewMemoryStore(issued.Tokens()))

	s, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, user.ID, s.User.ID)

	_, err = c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls("GetUser"))
}

func TestGetCurrentSession_RefreshesExpired(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret123", "Ana")
	issued := fake.IssueExpired("ana@example.com")

	store := identity.NewMemoryStore(issued.Tokens())
	c := identity.NewClient(fake, store)

	rec := &recorder{}
	c.OnSessionChange(rec.record)

	s, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NotEqual(t, issued.AccessToken, s.AccessToken)
	assert.NotEqual(t, issued.RefreshToken, s.RefreshToken)
	assert.Equal(t, 0, fake.Calls("GetUser"))

	stored, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, s.RefreshToken, stored.RefreshToken)
	assert.Equal(t, []identity.EventType{identity.EventTokenRefreshed}, rec.types())
}

func TestGetCurrentSession_RejectedTokenRefreshesOnce(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret123", "Ana")
	issued := fake.Issue("ana@example.com")
	fake.Revoke(issued.AccessToken)

	c := identity.NewClient(fake, identity.NewMemoryStore(issued.Tokens()))

	s, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 1, fake.Calls("GetUser"))
	assert.Equal(t, 1, fake.Calls("RefreshSession"))
}

func TestGetCurrentSession_UnrecoverableIsSignedOut(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret123", "Ana")

	store := identity.NewMemoryStore(identity.Tokens{AccessToken: "stale", RefreshToken: "unknown"})
	c := identity.NewClient(fake, store)

	rec := &recorder{}
	c.OnSessionChange(rec.record)

	s, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)

	_, ok := store.Load()
	assert.False(t, ok)
	assert.Equal(t, []identity.EventType{identity.EventSignedOut}, rec.types())
}

func TestGetCurrentSession_TransportErrorKeepsStore(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret123", "Ana")
	issued := fake.Issue("ana@example.com")
	fake.TransportErr = errors.New("dial tcp: connection refused")

	store := identity.NewMemoryStore(issued.Tokens())
	c := identity.NewClient(fake, store)

	s, err := c.GetCurrentSession(context.Background())
	require.Error(t, err)
	assert.Nil(t, s)

	_, ok := store.Load()
	assert.True(t, ok)

	// not memoized, a later call can still succeed
	fake.TransportErr = nil
	s, err = c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestGetCurrentSession_ExpiryFromJWT(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret123", "Ana")
	issued := fake.Issue("ana@example.com")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "x",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	c := identity.NewClient(fake, identity.NewMemoryStore(identity.Tokens{
		AccessToken:  expired,
		RefreshToken: issued.RefreshToken,
	}))

	s, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 0, fake.Calls("GetUser"))
	assert.Equal(t, 1, fake.Calls("RefreshSession"))
}

func TestSignInWithPassword(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret123", "Ana")

	store := identity.NewMemoryStore(identity.Tokens{})
	c := identity.NewClient(fake, store)

	rec := &recorder{}
	c.OnSessionChange(rec.record)

	_, err := c.SignInWithPassword(context.Background(), "ana@example.com", "wrong")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Empty(t, rec.types())

	s, err := c.SignInWithPassword(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Ana", s.User.DisplayName())

	stored, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, s.AccessToken, stored.AccessToken)
	assert.Equal(t, []identity.EventType{identity.EventSignedIn}, rec.types())

	current, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, s, current)
}

func TestSignUp(t *testing.T) {
	t.Run("with session", func(t *testing.T) {
		fake := identitytest.New()
		c := identity.NewClient(fake, nil)

		rec := &recorder{}
		c.OnSessionChange(rec.record)

		s, u, err := c.SignUp(context.Background(), "bo@example.com", "secret123", identity.Metadata{Name: "Bo"})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "Bo", u.UserMetadata.Name)
		assert.Equal(t, []identity.EventType{identity.EventSignedIn}, rec.types())
	})

	t.Run("awaiting confirmation", func(t *testing.T) {
		fake := identitytest.New()
		fake.RequireConfirmation = true
		c := identity.NewClient(fake, nil)

		rec := &recorder{}
		c.OnSessionChange(rec.record)

		s, u, err := c.SignUp(context.Background(), "bo@example.com", "secret123", identity.Metadata{Name: "Bo"})
		require.NoError(t, err)
		assert.Nil(t, s)
		assert.NotNil(t, u)
		assert.Empty(t, rec.types())
	})

	t.Run("duplicate", func(t *testing.T) {
		fake := identitytest.New()
		fake.AddUser("bo@example.com", "secret123", "Bo")
		c := identity.NewClient(fake, nil)

		_, _, err := c.SignUp(context.Background(), "bo@example.com", "secret123", identity.Metadata{})
		assert.ErrorIs(t, err, identity.ErrUserExists)
	})
}

func TestSignOut_ClearsEvenWhenRevocationFails(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret123", "Ana")
	issued := fake.Issue("ana@example.com")

	store := identity.NewMemoryStore(issued.Tokens())
	c := identity.NewClient(fake, store)

	_, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)

	rec := &recorder{}
	c.OnSessionChange(rec.record)

	fake.TransportErr = errors.New("connection reset")

	err = c.SignOut(context.Background())
	require.Error(t, err)

	_, ok := store.Load()
	assert.False(t, ok)
	assert.Equal(t, []identity.EventType{identity.EventSignedOut}, rec.types())

	s, err := c.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOnSessionChange_OrderAndUnsubscribe(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret123", "Ana")
	c := identity.NewClient(fake, nil)

	var order []string

	first := c.OnSessionChange(func(e identity.Event) { order = append(order, "first:"+string(e.Type)) })
	c.OnSessionChange(func(e identity.Event) { order = append(order, "second:"+string(e.Type)) })

	_, err := c.SignInWithPassword(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)

	first()
	first()

	require.NoError(t, c.SignOut(context.Background()))

	assert.Equal(t, []string{
		"first:SIGNED_IN",
		"second:SIGNED_IN",
		"second:SIGNED_OUT",
	}, order)
}
