// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/db"
	"github.com/traveloop/traveloop/internal/identity/local"
)

// Open returns an in-memory sqlite database with all tables.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(&config.DB{Driver: config.DriverSQLite, Path: ":memory:"}, false)
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")
	require.NoError(t, local.Migrate(gdb), "failed to migrate identity tables")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return gdb
}
