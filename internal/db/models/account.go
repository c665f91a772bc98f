package models

import (
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/traveloop/traveloop/internal/identity"
)

// Account is an identity of the local backend.
type Account struct {
	ID           string            `gorm:"primaryKey;size:36"`
	Email        string            `gorm:"uniqueIndex;size:255;not null"`
	Password     string            `gorm:"size:255;not null"` // argon2id hash
	UserMetadata identity.Metadata `gorm:"type:text;serializer:json"`
	AppMetadata  map[string]any    `gorm:"type:text;serializer:json"`
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BeforeCreate assigns the id.
func (a *Account) BeforeCreate(_ *gorm.DB) error {
	newID(&a.ID)

	return nil
}

// Confirmed reports whether the e-mail address was confirmed.
func (a *Account) Confirmed() bool {
	return a.ConfirmedAt != nil
}

// User converts the account to the identity user.
func (a *Account) User() *identity.User {
	u := &identity.User{
		ID:           a.ID,
		Email:        a.Email,
		UserMetadata: a.UserMetadata,
		AppMetadata:  a.AppMetadata,
		CreatedAt:    a.CreatedAt,
	}

	if a.ConfirmedAt != nil {
		u.ConfirmedAt = *a.ConfirmedAt
	}

	return u
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) (string, error) {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hashedPassword, nil
}

// VerifyPassword verifies a plaintext password against the stored hash in constant time.
func (a *Account) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, a.Password)
	if err != nil {
		log.Error().Err(err).Str("account", a.ID).Msg("failed to verify password")

		return false
	}

	return match
}

// AuthSession is one sign-in of an account. Access tokens carry its id as sid.
type AuthSession struct {
	ID        string `gorm:"primaryKey;size:36"`
	AccountID string `gorm:"size:36;not null;index"`
	RevokedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns the id.
func (s *AuthSession) BeforeCreate(_ *gorm.DB) error {
	newID(&s.ID)

	return nil
}

// Active reports whether the session was not revoked.
func (s *AuthSession) Active() bool {
	return s.RevokedAt == nil
}

// RefreshToken is a single use refresh token of an AuthSession.
// Only the SHA-256 digest of the token is stored.
type RefreshToken struct {
	ID        uint64 `gorm:"primaryKey"`
	Digest    string `gorm:"uniqueIndex;size:64;not null"`
	SessionID string `gorm:"size:36;not null;index"`
	AccountID string `gorm:"size:36;not null"`
	ParentID  uint64 `gorm:"index"` // token this one replaced, 0 for the first of a session
	Revoked   bool
	RevokedAt *time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
