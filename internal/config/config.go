// Package config handles input from etc/main.toml, the environment and an optional .env file.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TRAVELOOP_WEBSERVER_PORT.
	EnvPrefix = "TRAVELOOP"

	// EnvConfigJSON holds a JSON document merged over the file configuration.
	EnvConfigJSON = "TRAVELOOP_CONFIG_JSON"

	// ModeHosted talks to the hosted identity and data services.
	ModeHosted = "hosted"

	// ModeLocal runs identity and data on the local database.
	ModeLocal = "local"
)

// ReadConfig from config file.
// A missing main.toml is not an error, defaults and environment values are used instead.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	if path == "" {
		path = "./etc/"
	}

	// .env is optional, values already in the environment win
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("main")
	v.SetConfigType("toml")
	v.AddConfigPath(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = bindBackendEnv(v); err != nil {
		return Config{}, err
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "failed to read main config file")
		}
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	// override it from env
	if configAsJSON := os.Getenv(EnvConfigJSON); configAsJSON != "" {
		c, err = decodeAndMergeConfig(c, configAsJSON)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

// bindBackendEnv maps the two required backend values to their well known variable names.
func bindBackendEnv(v *viper.Viper) error {
	if err := v.BindEnv("backend.url",
		EnvPrefix+"_BACKEND_URL", "SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"); err != nil {
		return errors.Wrap(err, "failed to bind backend url")
	}

	if err := v.BindEnv("backend.anonkey",
		EnvPrefix+"_BACKEND_ANONKEY", "SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"); err != nil {
		return errors.Wrap(err, "failed to bind backend anon key")
	}

	return nil
}

func setDefaults(v *viper.Viper) { //nolint:funlen
	v.SetDefault("devmode", false)
	v.SetDefault("title", "Traveloop")

	v.SetDefault("backend.mode", ModeHosted)
	v.SetDefault("backend.timeout", 10*time.Second)

	v.SetDefault("local.jwtsecret", "")
	v.SetDefault("local.accesstokenttl", time.Hour)
	v.SetDefault("local.refreshtokenttl", 30*24*time.Hour)
	v.SetDefault("local.reuseinterval", 10*time.Second)
	v.SetDefault("local.autoconfirm", true)
	v.SetDefault("local.seed", true)
	v.SetDefault("local.adminemail", "")
	v.SetDefault("local.adminpassword", "")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "./data/traveloop.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 0)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "traveloop")
	v.SetDefault("db.extras", "")

	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "traveloop")
	v.SetDefault("log.servicename", "web")
	v.SetDefault("log.enableaccesslogtoconsole", true)
	v.SetDefault("log.disablecheckalive", true)
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("log.console.useconsolewriter", false)
	v.SetDefault("log.file.enabled", false)

	v.SetDefault("routes.protectedprefixes", []string{"/dashboard"})
	v.SetDefault("routes.authprefixes", []string{"/auth"})
	v.SetDefault("routes.passthroughprefixes", []string{"/api", "/_next", "/static", "/metrics", "/healthz"})
	v.SetDefault("routes.loginpath", "/auth/login")
	v.SetDefault("routes.defaultpath", "/dashboard")
	v.SetDefault("routes.redirectauthenticated", true)

	v.SetDefault("webserver.port", 8080) //nolint:mnd
	v.SetDefault("webserver.url", "http://localhost:8080")
	v.SetDefault("webserver.shutdowntime", 5) //nolint:mnd
	v.SetDefault("webserver.cookieencryptionkey", "")
	v.SetDefault("webserver.session.cookiemaxage", 30*24*time.Hour)
	v.SetDefault("webserver.session.refreshmargin", time.Minute)
	v.SetDefault("webserver.session.samesite", "Lax")
	v.SetDefault("webserver.ratelimit.enabled", true)
	v.SetDefault("webserver.ratelimit.max", 10) //nolint:mnd
	v.SetDefault("webserver.ratelimit.expiration", time.Minute)
	v.SetDefault("webserver.ratelimit.storage", "memory")
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config json from environment")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service can not start without
// and applies the validator tags of the config structs.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	switch c.Backend.Mode {
	case ModeHosted:
		if c.Backend.URL == "" {
			return errors.Wrap(ErrBackendURLMissing, invalidErrMessage)
		}

		if c.Backend.AnonKey == "" {
			return errors.Wrap(ErrBackendKeyMissing, invalidErrMessage)
		}
	case ModeLocal:
		if c.Local.JWTSecret == "" {
			return errors.Wrap(ErrLocalJWTSecretMissing, invalidErrMessage)
		}
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	return nil
}
