package config

import (
	"time"

	"github.com/traveloop/traveloop/internal/logger"
)

// Backend selects and configures the identity and data backend.
type Backend struct {
	// Mode is "hosted" (BaaS REST endpoints) or "local" (gorm database).
	Mode    string `validate:"oneof=hosted local"`
	URL     string `validate:"omitempty,url"` // service endpoint, required in hosted mode
	AnonKey string                           // public API key, required in hosted mode
	Timeout time.Duration
}

// Local configures the self-hosted identity backend used in local mode.
type Local struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ReuseInterval   time.Duration // grace period for a rotated refresh token
	AutoConfirm     bool   // sign-up returns a session right away
	Seed            bool   // seed the catalog tables when empty
	AdminEmail      string `validate:"omitempty,email"`
	AdminPassword   string
}

// Session cookie settings.
type Session struct {
	CookieMaxAge  time.Duration // lifetime of the token cookies
	RefreshMargin time.Duration // refresh tokens this long before they expire
	SameSite      string        `validate:"oneof=Lax Strict None"`
}

// RateLimit throttles credential submissions.
type RateLimit struct {
	Enabled    bool
	Max        int `validate:"min=0"`
	Expiration time.Duration
	Storage    string `validate:"oneof=memory postgres mysql"`
}

// Routes holds the path sets the route guard works with.
type Routes struct {
	ProtectedPrefixes     []string
	AuthPrefixes          []string
	PassThroughPrefixes   []string
	LoginPath             string
	DefaultPath           string
	RedirectAuthenticated bool // send signed-in users away from auth pages
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	Backend   Backend
	Local     Local
	DB        DB
	Log       logger.Log
	Routes    Routes
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	Port                int       // listening port for the webserver
	URL                 string    // base url for the webserver
	ShutDownTime        int       // wait time for shutdown
	CookieEncryptionKey string    // base64 key for encrypted cookies, empty disables encryption
	Session             Session   // session settings
	RateLimit           RateLimit // credential submission throttling
}
