// Package identitytest provides an in-memory identity.Provider for tests.
package identitytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/traveloop/traveloop/internal/identity"
)

type account struct {
	user     *identity.User
	password string
}

// Fake is an in-memory identity service. Tokens are opaque strings.
type Fake struct {
	mu sync.Mutex

	accounts map[string]*account // by e-mail
	access   map[string]string   // access token -> e-mail
	refresh  map[string]string   // refresh token -> e-mail
	seq      int

	// RequireConfirmation makes SignUp return no session.
	RequireConfirmation bool

	// TransportErr is returned by every call while set.
	TransportErr error

	// TTL of issued sessions. Default one hour.
	TTL time.Duration

	calls map[string]int
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		accounts: make(map[string]*account),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
		calls:    make(map[string]int),
		TTL:      time.Hour,
	}
}

// AddUser registers a confirmed account.
func (f *Fake) AddUser(email, password, name string) *identity.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := &identity.User{
		ID:           uuid.NewString(),
		Email:        email,
		UserMetadata: identity.Metadata{Name: name},
		ConfirmedAt:  time.Now(),
		CreatedAt:    time.Now(),
	}
	f.accounts[email] = &account{user: u, password: password}

	return u
}

// Issue creates a session for an existing account without credentials.
func (f *Fake) Issue(email string) *identity.Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.issue(email, time.Now().Add(f.TTL))
}

// IssueExpired creates a session whose access token is already expired.
func (f *Fake) IssueExpired(email string) *identity.Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.issue(email, time.Now().Add(-time.Minute))
	delete(f.access, s.AccessToken)

	return s
}

// Revoke invalidates an access token, its refresh token stays valid.
func (f *Fake) Revoke(accessToken string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.access, accessToken)
}

// Calls returns how often the named method ran.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[method]
}

// SignInWithPassword implements identity.Provider.
func (f *Fake) SignInWithPassword(_ context.Context, email, password string) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls["SignInWithPassword"]++

	if f.TransportErr != nil {
		return nil, f.TransportErr
	}

	a, ok := f.accounts[email]
	if !ok || a.password != password {
		return nil, &identity.APIError{StatusCode: 400, Code: "invalid_grant", Message: "Invalid login credentials", Err: identity.ErrInvalidCredentials}
	}

	if a.user.ConfirmedAt.IsZero() {
		return nil, &identity.APIError{StatusCode: 400, Code: "email_not_confirmed", Message: "Email not confirmed", Err: identity.ErrEmailNotConfirmed}
	}

	return f.issue(email, time.Now().Add(f.TTL)), nil
}

// SignUp implements identity.Provider.
func (f *Fake) SignUp(_ context.Context, email, password string, meta identity.Metadata) (*identity.Session, *identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls["SignUp"]++

	if f.TransportErr != nil {
		return nil, nil, f.TransportErr
	}

	if _, ok := f.accounts[email]; ok {
		return nil, nil, &identity.APIError{StatusCode: 422, Code: "user_already_exists", Message: "User already registered", Err: identity.ErrUserExists}
	}

	u := &identity.User{ID: uuid.NewString(), Email: email, UserMetadata: meta, CreatedAt: time.Now()}
	if !f.RequireConfirmation {
		u.ConfirmedAt = time.Now()
	}

	f.accounts[email] = &account{user: u, password: password}

	if f.RequireConfirmation {
		return nil, u, nil
	}

	return f.issue(email, time.Now().Add(f.TTL)), u, nil
}

// SignOut implements identity.Provider.
func (f *Fake) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls["SignOut"]++

	if f.TransportErr != nil {
		return f.TransportErr
	}

	email, ok := f.access[accessToken]
	if !ok {
		return &identity.APIError{StatusCode: 401, Message: "invalid token", Err: identity.ErrInvalidToken}
	}

	delete(f.access, accessToken)

	for rt, e := range f.refresh {
		if e == email {
			delete(f.refresh, rt)
		}
	}

	return nil
}

// GetUser implements identity.Provider.
func (f *Fake) GetUser(_ context.Context, accessToken string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls["GetUser"]++

	if f.TransportErr != nil {
		return nil, f.TransportErr
	}

	email, ok := f.access[accessToken]
	if !ok {
		return nil, &identity.APIError{StatusCode: 401, Message: "invalid JWT", Err: identity.ErrInvalidToken}
	}

	u := *f.accounts[email].user

	return &u, nil
}

// RefreshSession implements identity.Provider. Refresh tokens are single use.
func (f *Fake) RefreshSession(_ context.Context, refreshToken string) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls["RefreshSession"]++

	if f.TransportErr != nil {
		return nil, f.TransportErr
	}

	email, ok := f.refresh[refreshToken]
	if !ok {
		return nil, &identity.APIError{StatusCode: 400, Code: "invalid_grant", Message: "Invalid Refresh Token", Err: identity.ErrInvalidToken}
	}

	delete(f.refresh, refreshToken)

	return f.issue(email, time.Now().Add(f.TTL)), nil
}

func (f *Fake) issue(email string, expires time.Time) *identity.Session {
	f.seq++

	access := fmt.Sprintf("access-%d", f.seq)
	refresh := fmt.Sprintf("refresh-%d", f.seq)
	f.access[access] = email
	f.refresh[refresh] = email

	u := *f.accounts[email].user

	return &identity.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(time.Until(expires).Seconds()),
		ExpiresAt:    expires.Unix(),
		User:         &u,
	}
}

var _ identity.Provider = (*Fake)(nil)
