package config

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DB holds the database settings of the local backend and the shared rate limit storage.
type DB struct {
	Driver   string `validate:"oneof=sqlite postgres mysql"`
	Path     string // sqlite file, ":memory:" for an in-memory database
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}
