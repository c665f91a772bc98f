package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/traveloop/traveloop/internal/config"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "sqlite",
			db:   config.DB{Driver: config.DriverSQLite, Path: "./data/traveloop.db"},
			want: "./data/traveloop.db",
		},
		{
			name: "sqlite with pragmas",
			db:   config.DB{Driver: config.DriverSQLite, Path: "t.db", Extras: "_pragma=foreign_keys(1)"},
			want: "t.db?_pragma=foreign_keys(1)",
		},
		{
			name: "mysql default port",
			db: config.DB{
				Driver: config.DriverMySQL, Host: "db", User: "tl", Password: "pw", Name: "traveloop",
				Extras: "parseTime=true",
			},
			want: "tl:pw@tcp(db:3306)/traveloop?parseTime=true",
		},
		{
			name: "postgres",
			db: config.DB{
				Driver: config.DriverPostgres, Host: "db", Port: 5433, User: "tl", Password: "pw", Name: "traveloop",
				Extras: "sslmode=disable",
			},
			want: "host=db port=5433 user=tl password=pw dbname=traveloop sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Create(&tt.db))
		})
	}
}

func TestURI(t *testing.T) {
	assert.Empty(t, URI(&config.DB{Driver: config.DriverSQLite, Path: "t.db"}))

	assert.Equal(t, "postgres://tl:pw@db:5432/traveloop?sslmode=disable", URI(&config.DB{
		Driver: config.DriverPostgres, Host: "db", User: "tl", Password: "pw", Name: "traveloop", Extras: "sslmode=disable",
	}))

	assert.Equal(t, "tl:pw@tcp(db:3306)/traveloop?", URI(&config.DB{
		Driver: config.DriverMySQL, Host: "db", User: "tl", Password: "pw", Name: "traveloop",
	}))
}
