package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/identity/identitytest"
)

func newSignedIn(t *testing.T) (*identitytest.Fake, *identity.Client, *identity.User) {
	t.Helper()

	fake := identitytest.New()
	u := fake.AddUser("ana@example.com", "secret1", "Ana")
	s := fake.Issue("ana@example.com")

	return fake, identity.NewClient(fake, identity.NewMemoryStore(s.Tokens())), u
}

func TestInitialize_NoSession(t *testing.T) {
	p := New(identity.NewClient(identitytest.New(), nil))
	defer p.Close()

	assert.True(t, p.Loading())

	require.NoError(t, p.Initialize(context.Background()))

	assert.False(t, p.Loading())
	assert.Nil(t, p.User())
	assert.Nil(t, p.Session())
}

func TestInitialize_StoredSession(t *testing.T) {
	_, client, u := newSignedIn(t)

	p := New(client)
	defer p.Close()

	var seen []*identity.User

	p.Subscribe(func(u *identity.User) { seen = append(seen, u) })

	require.NoError(t, p.Initialize(context.Background()))

	require.NotNil(t, p.User())
	assert.Equal(t, u.ID, p.User().ID)
	require.Len(t, seen, 1)
	assert.Equal(t, u.ID, seen[0].ID)
}

func TestInitialize_TransportError(t *testing.T) {
	fake, client, _ := newSignedIn(t)
	fake.TransportErr = errors.New("dial tcp: connection refused")

	p := New(client)
	defer p.Close()

	require.Error(t, p.Initialize(context.Background()))
	assert.False(t, p.Loading())
	assert.Nil(t, p.User())
}

// racingClient delivers an event while the current session is fetched.
type racingClient struct {
	SessionClient

	cb      func(identity.Event)
	event   *identity.Session
	fetched *identity.Session
}

func (r *racingClient) OnSessionChange(cb func(identity.Event)) func() {
	r.cb = cb

	return func() { r.cb = nil }
}

func (r *racingClient) GetCurrentSession(context.Context) (*identity.Session, error) {
	r.cb(identity.Event{Type: identity.EventSignedIn, Session: r.event})

	return r.fetched, nil
}

func TestInitialize_EventDuringFetchWins(t *testing.T) {
	rc := &racingClient{
		event:   &identity.Session{AccessToken: "new", User: &identity.User{ID: "new-user"}},
		fetched: &identity.Session{AccessToken: "stale", User: &identity.User{ID: "stale-user"}},
	}

	p := New(rc)

	require.NoError(t, p.Initialize(context.Background()))
	assert.Equal(t, "new-user", p.User().ID)

	p.Close()
	assert.Nil(t, rc.cb, "close releases the subscription")

	p.Close()
}

func TestSignIn(t *testing.T) {
	fake := identitytest.New()
	u := fake.AddUser("ana@example.com", "secret1", "Ana")

	p := New(identity.NewClient(fake, nil))
	defer p.Close()

	require.NoError(t, p.Initialize(context.Background()))

	var seen []*identity.User

	p.Subscribe(func(u *identity.User) { seen = append(seen, u) })

	require.NoError(t, p.SignIn(context.Background(), "ana@example.com", "secret1"))

	require.NotNil(t, p.User())
	assert.Equal(t, u.ID, p.User().ID)
	assert.NotEmpty(t, p.Session().AccessToken)
	assert.Len(t, seen, 1, "one event, no second apply of the result")
}

func TestSignIn_WithoutInitialize(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret1", "Ana")

	p := New(identity.NewClient(fake, nil))
	defer p.Close()

	require.NoError(t, p.SignIn(context.Background(), "ana@example.com", "secret1"))
	require.NotNil(t, p.User())
	assert.Equal(t, "Ana", p.User().DisplayName())
}

func TestSignIn_Failures(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		transport error
		want      string
	}{
		{name: "wrong password", password: "nope", want: msgInvalidCredentials},
		{name: "network", password: "secret1", transport: errors.New("timeout"), want: msgUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := identitytest.New()
			fake.AddUser("ana@example.com", "secret1", "Ana")
			fake.TransportErr = tt.transport

			p := New(identity.NewClient(fake, nil))
			defer p.Close()

			err := p.SignIn(context.Background(), "ana@example.com", tt.password)

			var authErr *Error
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.want, authErr.Message)
			assert.Nil(t, p.User())
		})
	}
}

func TestSignUp(t *testing.T) {
	fake := identitytest.New()

	p := New(identity.NewClient(fake, nil))
	defer p.Close()

	require.NoError(t, p.Initialize(context.Background()))
	require.NoError(t, p.SignUp(context.Background(), "bo@example.com", "secret1", "Bo"))

	require.NotNil(t, p.User())
	assert.Equal(t, "Bo", p.User().UserMetadata.Name)

	err := p.SignUp(context.Background(), "bo@example.com", "secret1", "Bo")
	assert.Equal(t, msgUserExists, Message(err))
}

func TestSignUp_NeedsConfirmation(t *testing.T) {
	fake := identitytest.New()
	fake.RequireConfirmation = true

	p := New(identity.NewClient(fake, nil))
	defer p.Close()

	require.NoError(t, p.Initialize(context.Background()))
	require.NoError(t, p.SignUp(context.Background(), "bo@example.com", "secret1", "Bo"))
	assert.Nil(t, p.User())

	err := p.SignIn(context.Background(), "bo@example.com", "secret1")
	assert.Equal(t, msgNotConfirmed, Message(err))
}

func TestSignOut_ClearsEvenWhenRevocationFails(t *testing.T) {
	fake, client, _ := newSignedIn(t)

	p := New(client)
	defer p.Close()

	require.NoError(t, p.Initialize(context.Background()))
	require.NotNil(t, p.User())

	fake.TransportErr = errors.New("connection reset")

	require.NoError(t, p.SignOut(context.Background()))
	assert.Nil(t, p.User())
	assert.Nil(t, p.Session())
}

func TestClose_IgnoresLaterEvents(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret1", "Ana")
	client := identity.NewClient(fake, nil)

	p := New(client)
	require.NoError(t, p.Initialize(context.Background()))
	p.Close()

	_, err := client.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Nil(t, p.User())
}

func TestSignOut_AfterClose(t *testing.T) {
	_, client, _ := newSignedIn(t)

	p := New(client)
	require.NoError(t, p.Initialize(context.Background()))
	require.NotNil(t, p.User())

	p.Close()

	require.NoError(t, p.SignOut(context.Background()))
	assert.Nil(t, p.User())
	assert.Nil(t, p.Session())
}

// slowClient delivers an event while a sign-in or sign-out is in flight.
type slowClient struct {
	SessionClient

	cb     func(identity.Event)
	event  identity.Event
	result *identity.Session
}

func (s *slowClient) OnSessionChange(cb func(identity.Event)) func() {
	s.cb = cb

	return func() { s.cb = nil }
}

func (s *slowClient) GetCurrentSession(context.Context) (*identity.Session, error) {
	return nil, nil
}

func (s *slowClient) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	s.cb(s.event)

	return s.result, nil
}

func (s *slowClient) SignOut(context.Context) error {
	s.cb(s.event)

	return nil
}

func TestSignIn_LaterEventWins(t *testing.T) {
	sc := &slowClient{
		event: identity.Event{
			Type:    identity.EventTokenRefreshed,
			Session: &identity.Session{AccessToken: "later", User: &identity.User{ID: "later-user"}},
		},
		result: &identity.Session{AccessToken: "earlier", User: &identity.User{ID: "earlier-user"}},
	}

	p := New(sc)
	defer p.Close()

	require.NoError(t, p.Initialize(context.Background()))

	var seen []string

	p.Subscribe(func(u *identity.User) { seen = append(seen, u.ID) })

	require.NoError(t, p.SignIn(context.Background(), "ana@example.com", "secret1"))
	require.NotNil(t, p.User())
	assert.Equal(t, "later-user", p.User().ID)
	assert.Equal(t, "later", p.Session().AccessToken)
	assert.Equal(t, []string{"later-user"}, seen)
}

func TestSignOut_LaterEventWins(t *testing.T) {
	sc := &slowClient{
		event: identity.Event{
			Type:    identity.EventSignedIn,
			Session: &identity.Session{AccessToken: "other-tab", User: &identity.User{ID: "bo"}},
		},
	}

	p := New(sc)
	defer p.Close()

	require.NoError(t, p.Initialize(context.Background()))

	var seen int

	p.Subscribe(func(*identity.User) { seen++ })

	require.NoError(t, p.SignOut(context.Background()))
	require.NotNil(t, p.User())
	assert.Equal(t, "bo", p.User().ID)
	assert.Equal(t, 1, seen, "the sign-out result is not applied over the event")
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	fake := identitytest.New()
	fake.AddUser("ana@example.com", "secret1", "Ana")

	p := New(identity.NewClient(fake, nil))
	defer p.Close()

	require.NoError(t, p.Initialize(context.Background()))

	var order []string

	stop := p.Subscribe(func(*identity.User) { order = append(order, "first") })
	p.Subscribe(func(*identity.User) { order = append(order, "second") })

	require.NoError(t, p.SignIn(context.Background(), "ana@example.com", "secret1"))
	assert.Equal(t, []string{"first", "second"}, order)

	stop()
	stop()

	require.NoError(t, p.SignOut(context.Background()))
	assert.Equal(t, []string{"first", "second", "second"}, order)
}

func TestUse(t *testing.T) {
	assert.PanicsWithValue(t, ErrNoProvider, func() { Use(context.Background()) })

	p := New(identity.NewClient(identitytest.New(), nil))
	ctx := WithProvider(context.Background(), p)

	assert.Same(t, p, Use(ctx))

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, p, got)
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: identity.ErrRateLimited, want: msgRateLimited},
		{err: identity.ErrInvalidToken, want: msgSessionExpired},
		{err: &identity.APIError{StatusCode: 422, Message: "Password should contain a digit", Err: identity.ErrWeakPassword}, want: "Password should contain a digit"},
		{err: identity.ErrWeakPassword, want: msgWeakPassword},
		{err: &identity.APIError{StatusCode: 400, Message: "Signups not allowed"}, want: "Signups not allowed"},
		{err: &identity.APIError{StatusCode: 502, Message: "bad gateway"}, want: msgUnavailable},
		{err: &Error{Message: "custom"}, want: "custom"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Message(tt.err))
	}
}
