// Package local is the self-hosted identity backend on the application database.
//
// It serves the same operations as the hosted service: argon2id password
// accounts, HS256 access tokens carrying sub, email, sid and exp, refresh
// tokens rotated on every grant and revoked on sign-out.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/identity"
	"github.com/traveloop/traveloop/internal/uniuri"
)

const (
	whereEmail = "email = ?"
	whereID    = "id = ?"

	minPasswordLen = 6

	defaultReuseInterval = 10 * time.Second
)

// Config of the local backend.
type Config struct {
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// ReuseInterval is how long a rotated refresh token may still be presented,
	// as long as the token that replaced it is unused. Parallel requests of a
	// browser refresh with the same token.
	ReuseInterval time.Duration

	// AutoConfirm signs new accounts in right away instead of waiting for confirmation.
	AutoConfirm bool

	// AfterSignUp runs in the sign-up transaction, e.g. to create the profile row.
	AfterSignUp func(tx *gorm.DB, account *models.Account) error
}

// Backend implements identity.Provider on gorm.
type Backend struct {
	db       *gorm.DB
	cfg      Config
	now      func() time.Time
	validate *validator.Validate
}

// New creates the local backend. Migrate must have run once.
func New(db *gorm.DB, cfg Config) *Backend {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}

	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 30 * 24 * time.Hour //nolint:mnd
	}

	if cfg.ReuseInterval <= 0 {
		cfg.ReuseInterval = defaultReuseInterval
	}

	return &Backend{
		db:       db,
		cfg:      cfg,
		now:      time.Now,
		validate: validator.New(),
	}
}

// Migrate creates the identity tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Account{}, &models.AuthSession{}, &models.RefreshToken{}); err != nil {
		return fmt.Errorf("failed to migrate identity tables: %w", err)
	}

	return nil
}

// SignInWithPassword implements identity.Provider.
func (b *Backend) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	var account models.Account

	err := b.db.WithContext(ctx).Where(whereEmail, normalizeEmail(email)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// same answer as a wrong password
		return nil, invalidCredentials()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	if !account.VerifyPassword(password) {
		return nil, invalidCredentials()
	}

	if !account.Confirmed() {
		return nil, &identity.APIError{
			StatusCode: http.StatusBadRequest,
			Code:       "email_not_confirmed",
			Message:    "Email not confirmed",
			Err:        identity.ErrEmailNotConfirmed,
		}
	}

	var s *identity.Session

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		s, txErr = b.startSession(tx, &account)

		return txErr
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// SignUp implements identity.Provider.
func (b *Backend) SignUp(
	ctx context.Context, email, password string, meta identity.Metadata,
) (*identity.Session, *identity.User, error) {
	email = normalizeEmail(email)

	if err := b.validate.Var(email, "required,email"); err != nil {
		return nil, nil, &identity.APIError{
			StatusCode: http.StatusBadRequest,
			Code:       "validation_failed",
			Message:    "Unable to validate email address: invalid format",
		}
	}

	if len(password) < minPasswordLen {
		return nil, nil, &identity.APIError{
			StatusCode: http.StatusUnprocessableEntity,
			Code:       "weak_password",
			Message:    fmt.Sprintf("Password should be at least %d characters.", minPasswordLen),
			Err:        identity.ErrWeakPassword,
		}
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	account := models.Account{
		Email:        email,
		Password:     hash,
		UserMetadata: meta,
		AppMetadata:  map[string]any{"provider": "email"},
	}

	if b.cfg.AutoConfirm {
		now := b.now()
		account.ConfirmedAt = &now
	}

	var s *identity.Session

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where(whereEmail, email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing account: %w", err)
		}

		if count > 0 {
			return &identity.APIError{
				StatusCode: http.StatusUnprocessableEntity,
				Code:       "user_already_exists",
				Message:    "User already registered",
				Err:        identity.ErrUserExists,
			}
		}

		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}

		if b.cfg.AfterSignUp != nil {
			if err := b.cfg.AfterSignUp(tx, &account); err != nil {
				return fmt.Errorf("after sign-up: %w", err)
			}
		}

		if !account.Confirmed() {
			return nil
		}

		var err error
		s, err = b.startSession(tx, &account)

		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return s, account.User(), nil
}

// SignOut implements identity.Provider. It revokes the session and all of its refresh tokens.
func (b *Backend) SignOut(ctx context.Context, accessToken string) error {
	claims, err := b.parse(accessToken)
	if err != nil {
		return err
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return revokeSession(tx, claims.SessionID, b.now())
	})
}

// GetUser implements identity.Provider.
func (b *Backend) GetUser(ctx context.Context, accessToken string) (*identity.User, error) {
	claims, err := b.parse(accessToken)
	if err != nil {
		return nil, err
	}

	db := b.db.WithContext(ctx)

	var session models.AuthSession

	err = db.Where(whereID, claims.SessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !session.Active()) {
		return nil, invalidToken("session not found")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var account models.Account

	err = db.Where(whereID, claims.Subject).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalidToken("user not found")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	return account.User(), nil
}

// RefreshSession implements identity.Provider. The presented token is
// revoked and a new pair is issued for the same session. A revoked token
// presented again within the reuse interval, while its successor is unused,
// gets another pair. Any other reuse revokes the whole session.
func (b *Backend) RefreshSession(ctx context.Context, refreshToken string) (*identity.Session, error) {
	var (
		s      *identity.Session
		reused bool
	)

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt models.RefreshToken

		err := tx.Where("digest = ?", digest(refreshToken)).First(&rt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidToken("Invalid Refresh Token: Refresh Token Not Found")
		}

		if err != nil {
			return fmt.Errorf("failed to query refresh token: %w", err)
		}

		if rt.Revoked {
			ok, err := b.reusable(tx, &rt)
			if err != nil {
				return err
			}

			if !ok {
				reused = true

				return revokeSession(tx, rt.SessionID, b.now())
			}
		}

		if !b.now().Before(rt.ExpiresAt) {
			return invalidToken("Invalid Refresh Token: Refresh Token Expired")
		}

		var session models.AuthSession
		if err := tx.Where(whereID, rt.SessionID).First(&session).Error; err != nil || !session.Active() {
			return invalidToken("Invalid Refresh Token: Session Expired")
		}

		var account models.Account
		if err := tx.Where(whereID, rt.AccountID).First(&account).Error; err != nil {
			return invalidToken("Invalid Refresh Token: User Not Found")
		}

		if !rt.Revoked {
			err := tx.Model(&rt).Updates(map[string]any{"revoked": true, "revoked_at": b.now()}).Error
			if err != nil {
				return fmt.Errorf("failed to rotate refresh token: %w", err)
			}
		}

		s, err = b.issue(tx, &account, session.ID, rt.ID)

		return err
	})
	if err != nil {
		return nil, err
	}

	if reused {
		return nil, invalidToken("Invalid Refresh Token: Already Used")
	}

	return s, nil
}

// reusable reports whether a rotated token was replaced within the reuse
// interval by a token that is still unused.
func (b *Backend) reusable(tx *gorm.DB, rt *models.RefreshToken) (bool, error) {
	if rt.RevokedAt == nil || b.now().Sub(*rt.RevokedAt) > b.cfg.ReuseInterval {
		return false, nil
	}

	var n int64

	err := tx.Model(&models.RefreshToken{}).
		Where("parent_id = ? AND revoked = ?", rt.ID, false).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to query refresh token successor: %w", err)
	}

	return n > 0, nil
}

func (b *Backend) startSession(tx *gorm.DB, account *models.Account) (*identity.Session, error) {
	session := models.AuthSession{AccountID: account.ID}
	if err := tx.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return b.issue(tx, account, session.ID, 0)
}

// issue creates the access token and a new refresh token for a session.
func (b *Backend) issue(tx *gorm.DB, account *models.Account, sessionID string, parentID uint64) (*identity.Session, error) {
	now := b.now()
	expires := now.Add(b.cfg.AccessTokenTTL)

	access, err := b.sign(account, sessionID, now, expires)
	if err != nil {
		return nil, err
	}

	refresh, err := uniuri.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	rt := models.RefreshToken{
		Digest:    digest(refresh),
		SessionID: sessionID,
		AccountID: account.ID,
		ParentID:  parentID,
		ExpiresAt: now.Add(b.cfg.RefreshTokenTTL),
	}
	if err := tx.Create(&rt).Error; err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &identity.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(b.cfg.AccessTokenTTL.Seconds()),
		ExpiresAt:    expires.Unix(),
		User:         account.User(),
	}, nil
}

func revokeSession(tx *gorm.DB, sessionID string, now time.Time) error {
	if err := tx.Model(&models.AuthSession{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", now).Error; err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	if err := tx.Model(&models.RefreshToken{}).
		Where("session_id = ?", sessionID).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	return nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return &identity.APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "invalid_credentials",
		Message:    "Invalid login credentials",
		Err:        identity.ErrInvalidCredentials,
	}
}

func invalidToken(msg string) error {
	return &identity.APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       "bad_jwt",
		Message:    msg,
		Err:        identity.ErrInvalidToken,
	}
}

var _ identity.Provider = (*Backend)(nil)
