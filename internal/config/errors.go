package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrBackendURLMissing is returned in hosted mode without a service endpoint.
	ErrBackendURLMissing = errors.New("backend url is required (TRAVELOOP_BACKEND_URL or SUPABASE_URL)")

	// ErrBackendKeyMissing is returned in hosted mode without a public API key.
	ErrBackendKeyMissing = errors.New("backend anon key is required (TRAVELOOP_BACKEND_ANONKEY or SUPABASE_ANON_KEY)")

	// ErrLocalJWTSecretMissing is returned in local mode without a token signing secret.
	ErrLocalJWTSecretMissing = errors.New("local.jwtsecret is required in local backend mode")
)
