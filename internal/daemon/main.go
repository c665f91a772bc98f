// Package daemon assembles the backend and the web service.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/datastore/gormstore"
	"github.com/traveloop/traveloop/internal/datastore/postgrest"
	"github.com/traveloop/traveloop/internal/db"
	"github.com/traveloop/traveloop/internal/db/controller/profile"
	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/identity/gotrue"
	"github.com/traveloop/traveloop/internal/identity/local"
	"github.com/traveloop/traveloop/internal/web"
)

// ErrProfileNotCreated is returned by the sign-up hook when the profile row could not be stored.
var ErrProfileNotCreated = errors.New("profile not created")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service on the configured port.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// WaitShutdown blocks until the service was stopped by a signal.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create web service: %w", err)
	}

	return &Daemon{cfg: cfg, webService: webService}, nil
}

func newBackend(cfg *config.Config) (web.Backend, error) {
	if cfg.Backend.Mode == config.ModeHosted {
		log.Info().Str("url", cfg.Backend.URL).Msg("using hosted identity and data services")

		return web.Backend{
			Identity: gotrue.New(cfg.Backend.URL, cfg.Backend.AnonKey, cfg.Backend.Timeout),
			Data:     postgrest.New(cfg.Backend.URL, cfg.Backend.AnonKey, cfg.Backend.Timeout),
		}, nil
	}

	gdb, err := db.Open(&cfg.DB, cfg.DevMode)
	if err != nil {
		return web.Backend{}, err //nolint:wrapcheck
	}

	if err = db.Migrate(gdb); err != nil {
		return web.Backend{}, err //nolint:wrapcheck
	}

	if err = local.Migrate(gdb); err != nil {
		return web.Backend{}, err //nolint:wrapcheck
	}

	if err = seed(context.Background(), cfg, gdb); err != nil {
		return web.Backend{}, err
	}

	log.Info().Str("driver", cfg.DB.Driver).Msg("using local identity and data backend")

	return web.Backend{
		Identity: local.New(gdb, local.Config{
			JWTSecret:       []byte(cfg.Local.JWTSecret),
			AccessTokenTTL:  cfg.Local.AccessTokenTTL,
			RefreshTokenTTL: cfg.Local.RefreshTokenTTL,
			ReuseInterval:   cfg.Local.ReuseInterval,
			AutoConfirm:     cfg.Local.AutoConfirm,
			AfterSignUp:     createProfile,
		}),
		Data: gormstore.New(gdb),
	}, nil
}

// createProfile stores the profile of a new account in the sign-up transaction.
func createProfile(tx *gorm.DB, account *models.Account) error {
	p := profile.Create(tx.Statement.Context, gormstore.New(tx), &models.Profile{
		ID:    account.ID,
		Name:  account.UserMetadata.Name,
		Email: account.Email,
		Role:  models.RoleUser,
	})
	if p == nil {
		return ErrProfileNotCreated
	}

	return nil
}
