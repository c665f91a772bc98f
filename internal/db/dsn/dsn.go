// Package dsn builds database connection strings from the configuration.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/traveloop/traveloop/internal/config"
)

// Default ports per driver.
const (
	defaultMySQLPort    = 3306
	defaultPostgresPort = 5432
)

// Create builds the gorm Data Source Name for the configured driver.
func Create(db *config.DB) string {
	switch db.Driver {
	case config.DriverMySQL:
		return mysql(db)
	case config.DriverPostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host, port(db), db.User, db.Password, db.Name)
		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out
	default:
		if db.Extras != "" {
			return db.Path + "?" + db.Extras
		}

		return db.Path
	}
}

// URI builds the connection URI of the fiber storage drivers.
// It is empty for sqlite, which has no shared storage driver.
func URI(db *config.DB) string {
	switch db.Driver {
	case config.DriverMySQL:
		return mysql(db)
	case config.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(db.User, db.Password),
			Host:     net.JoinHostPort(db.Host, strconv.Itoa(port(db))),
			Path:     "/" + db.Name,
			RawQuery: db.Extras,
		}

		return u.String()
	default:
		return ""
	}
}

func mysql(db *config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		db.User,
		db.Password,
		net.JoinHostPort(db.Host, strconv.Itoa(port(db))),
		db.Name,
		db.Extras,
	)
}

func port(db *config.DB) int {
	if db.Port != 0 {
		return db.Port
	}

	if db.Driver == config.DriverMySQL {
		return defaultMySQLPort
	}

	return defaultPostgresPort
}
