// Package db opens and migrates the local database.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/db/dsn"
	"github.com/traveloop/traveloop/internal/db/models"
)

const slowQuery = 200 * time.Millisecond

// Open connects to the configured database.
func Open(cfg *config.DB, devMode bool) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.DriverPostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	default:
		if cfg.Path != "" && cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil { //nolint:mnd
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		dialector = sqlite.Open(dsn.Create(cfg))
	}

	level := gormlogger.Warn
	if devMode {
		level = gormlogger.Info
	}

	// gorm writes through the global zerolog logger
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(&log.Logger, gormlogger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite || cfg.Driver == "" {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql database: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	log.Info().Str("driver", cfg.Driver).Msg("database connected")

	return db, nil
}

// Migrate creates the application tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Destination{},
		&models.Hotel{},
		&models.Trip{},
		&models.Booking{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
