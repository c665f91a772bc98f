package auth

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/identity"
)

// SessionClient is the part of identity.Client the Provider uses.
type SessionClient interface {
	GetCurrentSession(ctx context.Context) (*identity.Session, error)
	OnSessionChange(cb func(identity.Event)) func()
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.Session, *identity.User, error)
	SignOut(ctx context.Context) error
}

// Provider is the auth state of one browser session.
type Provider struct {
	client SessionClient

	// applyMu keeps state changes and their delivery in order.
	applyMu sync.Mutex

	mu          sync.RWMutex
	session     *identity.Session
	loading     bool
	seq         uint64 // number of applied events
	closed      bool
	unsubscribe func()

	subsMu sync.Mutex
	subs   map[int]func(*identity.User)
	nextID int
}

// New creates a Provider in the loading state.
func New(client SessionClient) *Provider {
	return &Provider{
		client:  client,
		loading: true,
		subs:    make(map[int]func(*identity.User)),
	}
}

// Initialize subscribes to the session client and loads the current session.
// The error of the session lookup is returned for logging, the Provider is
// signed out in that case.
func (p *Provider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	if p.closed || p.unsubscribe != nil {
		p.mu.Unlock()

		return nil
	}
	p.mu.Unlock()

	unsubscribe := p.client.OnSessionChange(p.onEvent)

	p.mu.Lock()
	p.unsubscribe = unsubscribe
	seq := p.seq
	p.mu.Unlock()

	s, err := p.client.GetCurrentSession(ctx)

	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	p.mu.Lock()
	p.loading = false
	apply := err == nil && p.seq == seq && !p.closed
	if apply {
		p.session = s
	}
	p.mu.Unlock()

	if apply {
		p.notify(userOf(s))
	}

	if err != nil {
		return fmt.Errorf("initialize auth state: %w", err)
	}

	return nil
}

// Close releases the subscription. Later events are ignored.
func (p *Provider) Close() {
	p.mu.Lock()
	p.closed = true
	unsubscribe := p.unsubscribe
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// User returns the signed-in user or nil.
func (p *Provider) User() *identity.User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return userOf(p.session)
}

// Session returns the current session or nil.
func (p *Provider) Session() *identity.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.session
}

// Loading is true until Initialize has finished.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loading
}

// Subscribe calls cb with the user after every state change.
// The returned function releases the subscription.
func (p *Provider) Subscribe(cb func(*identity.User)) func() {
	p.subsMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = cb
	p.subsMu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			p.subsMu.Lock()
			delete(p.subs, id)
			p.subsMu.Unlock()
		})
	}
}

// SignIn signs in with e-mail and password.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	seq := p.currentSeq()

	s, err := p.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		log.Info().Err(err).Str("email", email).Msg("sign in failed")

		return newError(err)
	}

	p.applyUnlessChanged(seq, s)

	return nil
}

// SignUp creates an account with the display name in the user metadata.
// The Provider stays signed out unless the service returned a session.
func (p *Provider) SignUp(ctx context.Context, email, password, name string) error {
	seq := p.currentSeq()

	s, _, err := p.client.SignUp(ctx, email, password, identity.Metadata{Name: name})
	if err != nil {
		log.Info().Err(err).Str("email", email).Msg("sign up failed")

		return newError(err)
	}

	if s != nil {
		p.applyUnlessChanged(seq, s)
	}

	return nil
}

// SignOut revokes the session. The state is cleared even when the revocation fails.
func (p *Provider) SignOut(ctx context.Context) error {
	seq := p.currentSeq()

	if err := p.client.SignOut(ctx); err != nil {
		log.Warn().Err(err).Msg("session revocation failed, signed out locally")
	}

	p.clearSession(seq)

	return nil
}

func (p *Provider) currentSeq() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.seq
}

// onEvent overwrites the state with the session of e.
func (p *Provider) onEvent(e identity.Event) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return
	}

	p.session = e.Session
	p.seq++
	p.mu.Unlock()

	log.Debug().Str("event", string(e.Type)).Msg("auth state changed")

	p.notify(userOf(e.Session))
}

// applyUnlessChanged sets s when no event was applied since seq.
// Without a subscription no event ever arrives, so the result is used directly.
func (p *Provider) applyUnlessChanged(seq uint64, s *identity.Session) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	p.mu.Lock()
	apply := p.seq == seq && !p.closed
	if apply {
		p.session = s
		p.seq++
	}
	p.mu.Unlock()

	if apply {
		p.notify(userOf(s))
	}
}

// clearSession drops the session after a sign-out. An event applied since seq
// still wins. A closed Provider receives no events, so it is always cleared.
func (p *Provider) clearSession(seq uint64) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.session = nil
		p.mu.Unlock()

		return
	}

	apply := p.seq == seq
	if apply {
		p.session = nil
		p.seq++
	}
	p.mu.Unlock()

	if apply {
		p.notify(nil)
	}
}

func (p *Provider) notify(u *identity.User) {
	p.subsMu.Lock()
	ids := make([]int, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	p.subsMu.Unlock()

	slices.Sort(ids)

	for _, id := range ids {
		p.subsMu.Lock()
		cb, ok := p.subs[id]
		p.subsMu.Unlock()

		if ok {
			cb(u)
		}
	}
}

func userOf(s *identity.Session) *identity.User {
	if s == nil {
		return nil
	}

	return s.User
}
