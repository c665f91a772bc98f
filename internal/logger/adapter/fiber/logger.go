// Package fiber is the zerolog access log middleware of the web service.
package fiber

import (
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/traveloop/traveloop/internal/logger"
)

// Config of the access log middleware.
type Config struct {
	// Next skips logging for requests it returns true for.
	Next func(c *fiber.Ctx) bool

	// Config selects the outputs: the access file and, optionally, stdout.
	Config logger.Log

	// CacheControlError is sent when the error handler itself failed.
	CacheControlError string

	// SkipPaths are not logged when Config.DisableCheckAlive is set, e.g. /healthz.
	SkipPaths []string

	// UserID fills the "user" field, empty means anonymous.
	UserID func(c *fiber.Ctx) string
}

// ConfigDefault logs every request except /healthz.
var ConfigDefault = Config{
	Next:              nil,
	CacheControlError: "max-age=0",
	SkipPaths:         []string{"/healthz"},
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	return cfg
}

// New returns the access log middleware. Requests are timed, errors of the
// chain go through the app error handler, then one entry is written per request.
func New(config ...Config) fiber.Handler {
	var (
		writers []io.Writer
		cfg     = configDefault(config...)
	)

	if cfg.Config.File.Enabled {
		if fw := newRollingAccessFile(&cfg.Config); fw != nil {
			writers = append(writers, fw)
		}
	}

	// Console.Enabled is the master switch, EnableAccessLogToConsole only narrows it.
	if cfg.Config.Console.Enabled && cfg.Config.EnableAccessLogToConsole {
		if cfg.Config.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				NoColor:      false,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{"level"},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	accessLogger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger().
		Level(zerolog.NoLevel)

	return func(ctx *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(ctx) {
			return ctx.Next()
		}

		start := time.Now()

		chainErr := ctx.Next()
		if chainErr != nil {
			if errH := ctx.App().ErrorHandler(ctx, chainErr); errH != nil {
				_ = ctx.SendStatus(fiber.StatusInternalServerError) //nolint:errcheck // ok here
				ctx.Response().Header.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start).Seconds()
		ctx.Response().Header.Set("X-Performance", fmt.Sprintf("%f", elapsed))

		if len(writers) == 0 {
			return nil
		}

		if cfg.Config.DisableCheckAlive && slices.Contains(cfg.SkipPaths, ctx.Path()) {
			return nil
		}

		// fasthttp normalizes //a/b to /a/b, ctx.Path keeps what the client sent.
		p := ctx.Path()
		if len(ctx.Queries()) > 0 {
			p = p + "?" + string(ctx.Request().URI().QueryString())
		}

		event := accessLogger.Log().Str("IP", ctx.IP()).
			Int("status", ctx.Response().StatusCode()).
			Float64("X-Performance", elapsed).
			Str("URI", p).
			Str("method", ctx.Method()).
			Bytes("host", ctx.Request().Host()).
			Str(fiber.HeaderXForwardedFor, ctx.Get(fiber.HeaderXForwardedFor)).
			Str(fiber.HeaderUserAgent, ctx.Get(fiber.HeaderUserAgent)).
			Str(fiber.HeaderReferer, ctx.Get(fiber.HeaderReferer))

		if cfg.UserID != nil {
			if id := cfg.UserID(ctx); id != "" {
				event.Str("user", id)
			}
		}

		if chainErr != nil {
			event.Err(chainErr)
		}

		event.Send()

		return nil
	}
}

// newRollingAccessFile opens File.AccessLog with the Access rotation limits.
func newRollingAccessFile(cfg *logger.Log) io.Writer {
	if cfg.File.Path != "" {
		if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil { //nolint:mnd
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create log directory")

			return nil
		}
	}

	return &lumberjack.Logger{
		Filename:   path.Join(cfg.File.Path, cfg.File.AccessLog),
		MaxSize:    cfg.File.Access.MaxSize,
		MaxAge:     cfg.File.Access.MaxAge,
		MaxBackups: cfg.File.Access.MaxBackups,
		LocalTime:  false,
		Compress:   false,
	}
}
