// Package gotrue adapts the supabase-community GoTrue client (/auth/v1) to
// identity.Provider.
package gotrue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gotrueapi "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/restcall"
)

const basePath = "/auth/v1"

// Client talks to the identity service with the project's public key.
type Client struct {
	api     gotrueapi.Client
	timeout time.Duration
}

// New creates the identity client for the service at baseURL.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		api:     gotrueapi.New("", apiKey).WithCustomGoTrueURL(strings.TrimRight(baseURL, "/") + basePath),
		timeout: timeout,
	}
}

// SignInWithPassword runs the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	var res *types.TokenResponse

	err := c.call(ctx, "", func(api gotrueapi.Client) (err error) {
		res, err = api.SignInWithEmailPassword(email, password)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("gotrue.SignInWithPassword: %w", err)
	}

	return toSession(&res.Session), nil
}

// SignUp creates an account. Without auto-confirm the service answers with
// the bare user, with it a full session.
func (c *Client) SignUp(
	ctx context.Context, email, password string, meta identity.Metadata,
) (*identity.Session, *identity.User, error) {
	data, err := metadataMap(meta)
	if err != nil {
		return nil, nil, fmt.Errorf("gotrue.SignUp: %w", err)
	}

	var res *types.SignupResponse

	err = c.call(ctx, "", func(api gotrueapi.Client) (err error) {
		res, err = api.Signup(types.SignupRequest{Email: email, Password: password, Data: data})

		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("gotrue.SignUp: %w", err)
	}

	if res.AccessToken == "" {
		return nil, toUser(&res.User), nil
	}

	s := toSession(&res.Session)

	return s, s.User, nil
}

// SignOut revokes the refresh tokens of the session.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	err := c.call(ctx, accessToken, func(api gotrueapi.Client) error {
		return api.Logout() //nolint:wrapcheck
	})
	if err != nil {
		return fmt.Errorf("gotrue.SignOut: %w", err)
	}

	return nil
}

// GetUser verifies the access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*identity.User, error) {
	var res *types.UserResponse

	err := c.call(ctx, accessToken, func(api gotrueapi.Client) (err error) {
		res, err = api.GetUser()

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("gotrue.GetUser: %w", err)
	}

	return toUser(&res.User), nil
}

// RefreshSession runs the refresh token grant.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*identity.Session, error) {
	var res *types.TokenResponse

	err := c.call(ctx, "", func(api gotrueapi.Client) (err error) {
		res, err = api.RefreshToken(refreshToken)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("gotrue.RefreshSession: %w", err)
	}

	return toSession(&res.Session), nil
}

// call runs fn on a copy of the API client bound to ctx and, when set, the
// user's access token. Error answers become *identity.APIError.
func (c *Client) call(ctx context.Context, accessToken string, fn func(api gotrueapi.Client) error) error {
	rt, cancel := restcall.New(ctx, c.timeout)
	defer cancel()

	api := c.api.WithClient(rt.Client())
	if accessToken != "" {
		api = api.WithToken(accessToken)
	}

	err := fn(api)
	if err == nil {
		return nil
	}

	if status, body, ok := rt.Failed(); ok {
		return decodeError(status, body)
	}

	// the library validates grants before sending them
	if errors.Is(err, types.ErrInvalidTokenRequest) {
		return &identity.APIError{
			StatusCode: http.StatusBadRequest,
			Code:       "validation_failed",
			Message:    "missing credentials",
			Err:        identity.ErrInvalidCredentials,
		}
	}

	return err //nolint:wrapcheck // wrapped by the operation
}

func toSession(s *types.Session) *identity.Session {
	return &identity.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    int64(s.ExpiresIn),
		ExpiresAt:    s.ExpiresAt,
		User:         toUser(&s.User),
	}
}

func toUser(u *types.User) *identity.User {
	out := &identity.User{
		Email:       u.Email,
		AppMetadata: u.AppMetadata,
		ConfirmedAt: u.ConfirmedAt,
		CreatedAt:   u.CreatedAt,
	}

	if u.ID != uuid.Nil {
		out.ID = u.ID.String()
	}

	if u.EmailConfirmedAt != nil {
		out.ConfirmedAt = *u.EmailConfirmedAt
	}

	if len(u.UserMetadata) > 0 {
		if raw, err := json.Marshal(u.UserMetadata); err == nil {
			_ = json.Unmarshal(raw, &out.UserMetadata)
		}
	}

	return out
}

func metadataMap(meta identity.Metadata) (map[string]any, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	return out, nil
}

var _ identity.Provider = (*Client)(nil)
