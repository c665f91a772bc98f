package gotrue

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/traveloop/traveloop/internal/identity"
)

// errorBody covers the error shapes of the identity service versions in use.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// decodeError turns an error answer into an *identity.APIError.
func decodeError(status int, raw []byte) error {
	apiErr := &identity.APIError{StatusCode: status}

	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Code = firstNonEmpty(body.ErrorCode, body.Error)
		if s, ok := body.Code.(string); ok && apiErr.Code == "" {
			apiErr.Code = s
		}

		apiErr.Message = firstNonEmpty(body.Msg, body.Message, body.ErrorDescription, body.Error)
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	apiErr.Err = classify(status, apiErr.Code, apiErr.Message)

	return apiErr
}

// classify maps an answer to the identity sentinel errors.
func classify(status int, code, msg string) error {
	lower := strings.ToLower(code + " " + msg)

	switch {
	case status == http.StatusTooManyRequests:
		return identity.ErrRateLimited
	case strings.Contains(lower, "email_not_confirmed"), strings.Contains(lower, "not confirmed"):
		return identity.ErrEmailNotConfirmed
	case strings.Contains(lower, "user_already_exists"), strings.Contains(lower, "already registered"):
		return identity.ErrUserExists
	case strings.Contains(lower, "weak_password"):
		return identity.ErrWeakPassword
	case strings.Contains(lower, "invalid_credentials"), strings.Contains(lower, "invalid login credentials"):
		return identity.ErrInvalidCredentials
	case strings.Contains(lower, "refresh token"), strings.Contains(lower, "jwt"),
		status == http.StatusUnauthorized, status == http.StatusForbidden:
		return identity.ErrInvalidToken
	case strings.Contains(lower, "invalid_grant"):
		return identity.ErrInvalidCredentials
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
