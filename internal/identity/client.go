package identity

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultRefreshMargin refreshes a session that expires within this window.
const DefaultRefreshMargin = time.Minute

// Client is the session client of one browser session.
//
// Subscribers are called synchronously in state change order and must not
// call back into methods that change the session (SignIn, SignOut, a first
// GetCurrentSession).
type Client struct {
	provider Provider
	store    TokenStore
	margin   time.Duration
	now      func() time.Time

	resolveMu sync.Mutex // serializes GetCurrentSession

	mu       sync.Mutex // guards current and resolved
	current  *Session
	resolved bool

	dispatchMu sync.Mutex // serializes state change + delivery

	subsMu sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// Option configures a Client.
type Option func(*Client)

// WithRefreshMargin sets how long before expiry a session is refreshed.
func WithRefreshMargin(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.margin = d
		}
	}
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a session client. A nil store means no persisted session.
func NewClient(provider Provider, store TokenStore, opts ...Option) *Client {
	if store == nil {
		store = NewMemoryStore(Tokens{})
	}

	c := &Client{
		provider: provider,
		store:    store,
		margin:   DefaultRefreshMargin,
		now:      time.Now,
		subs:     make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// OnSessionChange registers cb for every later state change.
// The returned function releases the subscription and may be called more than once.
func (c *Client) OnSessionChange(cb func(Event)) func() {
	c.subsMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = cb
	c.subsMu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
		})
	}
}

// GetCurrentSession returns the verified session of this browser session or nil.
//
// The stored access token is refreshed when it expires within the refresh
// margin and verified against the identity service otherwise. A rejected
// token gets one refresh attempt. A session that can not be recovered is
// cleared from the store and reported as EventSignedOut. Transport errors
// are returned and leave the store untouched. A verified result is kept for
// the lifetime of the client.
func (c *Client) GetCurrentSession(ctx context.Context) (*Session, error) {
	c.resolveMu.Lock()
	defer c.resolveMu.Unlock()

	c.mu.Lock()
	if c.resolved {
		s := c.current
		c.mu.Unlock()

		return s, nil
	}
	c.mu.Unlock()

	tokens, ok := c.store.Load()
	if !ok || tokens.Empty() {
		c.settle(nil)

		return nil, nil
	}

	expiresAt := tokens.ExpiresAt
	if expiresAt == 0 {
		expiresAt = ExpiryFromToken(tokens.AccessToken)
	}

	if tokens.AccessToken == "" || c.expiresSoon(expiresAt) {
		return c.refresh(ctx, tokens.RefreshToken)
	}

	user, err := c.provider.GetUser(ctx, tokens.AccessToken)
	if err != nil {
		if !IsRejected(err) {
			return nil, fmt.Errorf("verify session: %w", err)
		}

		log.Debug().Err(err).Msg("access token rejected, trying refresh")

		return c.refresh(ctx, tokens.RefreshToken)
	}

	s := &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
		User:         user,
	}
	c.settle(s)

	return s, nil
}

// SignInWithPassword signs in and stores the new session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	s, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err //nolint:wrapcheck // sentinel errors are mapped by the caller
	}

	c.store.Save(s.Tokens())
	c.emit(Event{Type: EventSignedIn, Session: s})

	return s, nil
}

// SignUp creates an account. A returned session is stored and reported as EventSignedIn.
func (c *Client) SignUp(ctx context.Context, email, password string, meta Metadata) (*Session, *User, error) {
	s, u, err := c.provider.SignUp(ctx, email, password, meta)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // sentinel errors are mapped by the caller
	}

	if s != nil {
		c.store.Save(s.Tokens())
		c.emit(Event{Type: EventSignedIn, Session: s})
	}

	return s, u, nil
}

// SignOut revokes the session. The store is cleared and EventSignedOut is
// emitted even when the revocation fails, the error is still returned.
func (c *Client) SignOut(ctx context.Context) error {
	access := ""

	c.mu.Lock()
	if c.current != nil {
		access = c.current.AccessToken
	}
	c.mu.Unlock()

	if access == "" {
		if t, ok := c.store.Load(); ok {
			access = t.AccessToken
		}
	}

	var err error
	if access != "" {
		err = c.provider.SignOut(ctx, access)
	}

	c.store.Clear()
	c.emit(Event{Type: EventSignedOut})

	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (c *Client) expiresSoon(expiresAt int64) bool {
	if expiresAt == 0 {
		return false
	}

	return !c.now().Add(c.margin).Before(time.Unix(expiresAt, 0))
}

// refresh runs the refresh token grant for GetCurrentSession.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		c.drop()

		return nil, nil
	}

	s, err := c.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		if !IsRejected(err) {
			return nil, fmt.Errorf("refresh session: %w", err)
		}

		log.Debug().Err(err).Msg("refresh token rejected, session dropped")
		c.drop()

		return nil, nil
	}

	c.store.Save(s.Tokens())
	c.emit(Event{Type: EventTokenRefreshed, Session: s})

	return s, nil
}

// drop forgets a stored session that can not be recovered.
func (c *Client) drop() {
	c.store.Clear()
	c.emit(Event{Type: EventSignedOut})
}

// settle records a verified state without an event.
func (c *Client) settle(s *Session) {
	c.mu.Lock()
	c.current = s
	c.resolved = true
	c.mu.Unlock()
}

// emit changes the state and delivers the event before the next change can start.
func (c *Client) emit(e Event) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.settle(e.Session)

	c.subsMu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	c.subsMu.Unlock()

	// registration order
	slices.Sort(ids)

	for _, id := range ids {
		c.subsMu.Lock()
		cb, ok := c.subs[id]
		c.subsMu.Unlock()

		if ok {
			cb(e)
		}
	}
}
