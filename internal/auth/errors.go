package auth

import (
	"errors"

	"github.com/traveloop/traveloop/internal/identity"
)

// ErrNoProvider is the panic value of Use outside of Middleware.
var ErrNoProvider = errors.New("auth: no provider in context")

const (
	msgInvalidCredentials = "Invalid login credentials"
	msgNotConfirmed       = "Email not confirmed. Please check your inbox."
	msgUserExists         = "User already registered"
	msgWeakPassword       = "Password should be at least 6 characters"
	msgRateLimited        = "Too many requests. Please try again later."
	msgSessionExpired     = "Your session has expired. Please sign in again."
	msgUnavailable        = "Service unavailable. Please try again later."
)

// Error is a failed auth operation. Message can be shown to the user.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError maps an identity error to a user facing message.
func newError(err error) *Error {
	var apiErr *identity.APIError

	hasMessage := errors.As(err, &apiErr) && apiErr.Message != ""

	msg := msgUnavailable

	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		msg = msgInvalidCredentials
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		msg = msgNotConfirmed
	case errors.Is(err, identity.ErrUserExists):
		msg = msgUserExists
	case errors.Is(err, identity.ErrWeakPassword):
		msg = msgWeakPassword
		if hasMessage {
			msg = apiErr.Message
		}
	case errors.Is(err, identity.ErrRateLimited):
		msg = msgRateLimited
	case errors.Is(err, identity.ErrInvalidToken):
		msg = msgSessionExpired
	case hasMessage && apiErr.StatusCode < 500:
		msg = apiErr.Message
	}

	return &Error{Message: msg, Err: err}
}

// Message returns the user facing text of err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Message
	}

	return newError(err).Message
}
