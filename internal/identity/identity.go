// Package identity models the sessions issued by the identity service and
// the per browser session client that keeps them current.
package identity

import (
	"context"
	"encoding/json"
	"time"
)

// EventType names a session state change.
type EventType string

const (
	// EventSignedIn is emitted after a password sign-in or a sign-up that returned a session.
	EventSignedIn EventType = "SIGNED_IN"

	// EventSignedOut is emitted after sign-out or when a stored session could not be recovered.
	EventSignedOut EventType = "SIGNED_OUT"

	// EventTokenRefreshed is emitted after the refresh token grant replaced the session.
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is one change of the session state. Session is nil for EventSignedOut.
type Event struct {
	Type    EventType
	Session *Session
}

// Metadata is the user metadata. Name and AvatarURL are the keys the
// application reads, every other key is kept in Extra.
type Metadata struct {
	Name      string
	AvatarURL string
	Extra     map[string]any
}

const (
	metaName   = "name"
	metaAvatar = "avatar_url"
)

// MarshalJSON flattens the known keys and Extra into one object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+2) //nolint:mnd

	for k, v := range m.Extra {
		out[k] = v
	}

	if m.Name != "" {
		out[metaName] = m.Name
	}

	if m.AvatarURL != "" {
		out[metaAvatar] = m.AvatarURL
	}

	return json.Marshal(out)
}

// UnmarshalJSON picks the known keys and keeps the rest in Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata{}

	for k, v := range raw {
		switch k {
		case metaName:
			m.Name, _ = v.(string)
		case metaAvatar:
			m.AvatarURL, _ = v.(string)
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}

			m.Extra[k] = v
		}
	}

	return nil
}

// User as reported by the identity service.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata Metadata       `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	ConfirmedAt  time.Time      `json:"confirmed_at,omitzero"`
	CreatedAt    time.Time      `json:"created_at,omitzero"`
}

// DisplayName returns the metadata name or falls back to the e-mail address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}

	if u.UserMetadata.Name != "" {
		return u.UserMetadata.Name
	}

	return u.Email
}

// Session is the token pair issued by the identity service together with its user.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// Tokens returns the storable part of the session.
func (s *Session) Tokens() Tokens {
	if s == nil {
		return Tokens{}
	}

	expiresAt := s.ExpiresAt
	if expiresAt == 0 && s.ExpiresIn > 0 {
		expiresAt = time.Now().Unix() + s.ExpiresIn
	}

	return Tokens{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}

// Tokens are what a TokenStore keeps between requests.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // unix seconds, 0 when unknown
}

// Empty reports whether there is nothing to restore a session from.
func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Provider is the surface of the identity service the application consumes.
type Provider interface {
	// SignInWithPassword exchanges credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp creates an account. The session is nil while the e-mail address awaits confirmation.
	SignUp(ctx context.Context, email, password string, meta Metadata) (*Session, *User, error)

	// SignOut revokes the session the access token belongs to.
	SignOut(ctx context.Context, accessToken string) error

	// GetUser verifies the access token server side.
	GetUser(ctx context.Context, accessToken string) (*User, error)

	// RefreshSession runs the refresh token grant.
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
}
