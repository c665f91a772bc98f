package identity

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned for an unknown e-mail address or a wrong password.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrEmailNotConfirmed is returned when signing in to an account that awaits confirmation.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrUserExists is returned by sign-up for an e-mail address that is already registered.
	ErrUserExists = errors.New("user already registered")

	// ErrInvalidToken is returned when an access or refresh token is rejected.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrRateLimited is returned when the identity service throttles the caller.
	ErrRateLimited = errors.New("too many requests")

	// ErrWeakPassword is returned by sign-up when the password does not meet the policy.
	ErrWeakPassword = errors.New("password is too weak")
)

// APIError is a non-2xx answer of the identity service.
// Err carries the matching sentinel so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("identity: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err means the service refused the token or
// credentials, as opposed to a transport failure.
func IsRejected(err error) bool {
	if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrInvalidCredentials) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return true
		}
	}

	return false
}
