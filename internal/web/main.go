package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/traveloop/traveloop/internal/auth"
	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/datastore"
	"github.com/traveloop/traveloop/internal/db/dsn"
	"github.com/traveloop/traveloop/internal/identity"
	accesslog "github.com/traveloop/traveloop/internal/logger/adapter/fiber"
	"github.com/traveloop/traveloop/internal/web/handler"
	"github.com/traveloop/traveloop/internal/web/handler/admin"
	"github.com/traveloop/traveloop/internal/web/handler/api"
	"github.com/traveloop/traveloop/internal/web/handler/dashboard"
	"github.com/traveloop/traveloop/internal/web/handler/login"
	"github.com/traveloop/traveloop/internal/web/handler/logout"
	"github.com/traveloop/traveloop/internal/web/handler/register"
	"github.com/traveloop/traveloop/internal/web/middleware/guard"
	"github.com/traveloop/traveloop/internal/web/session"
)

const (
	// HealthPath answers 200 while the service accepts traffic.
	HealthPath = "/healthz"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"

	rateLimitTable = "traveloop_rate_limit"
	msgRateLimited = "Too many requests. Please try again later."
)

// Backend is the identity and data service behind the web service.
type Backend struct {
	Identity identity.Provider
	Data     datastore.Client
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	sessions     *session.Store
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a signal and stops the web service gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so /healthz returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates the web service on top of the backend.
func New(cfg *config.Config, backend Backend) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if backend.Identity == nil || backend.Data == nil {
		return nil, errors.New("backend is incomplete")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          newTemplateEngine(cfg),
		},
	)

	service := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode,
		sessions:     session.New(backend.Identity, session.ConfigFrom(cfg)),
	}
	service.alive.Store(true)

	app.Use(recover.New())
	app.Use(accesslog.New(accesslog.Config{
		Config:    cfg.Log,
		SkipPaths: []string{HealthPath, MetricsPath},
		UserID:    signedInUserID,
	}))

	if cfg.Webserver.CookieEncryptionKey != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{
			Key: cfg.Webserver.CookieEncryptionKey,
		}))
	}

	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:   http.FS(subFS(embeddedStaticFiles, "static")),
				Browse: false,
			},
		),
	)

	app.Get(HealthPath, service.health)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(guard.New(guard.Config{
		Routes: cfg.Routes,
		Session: func(c *fiber.Ctx) (*identity.Session, error) {
			return service.sessions.ClientFor(c).GetCurrentSession(c.UserContext())
		},
	}))

	app.Use([]string{"/auth", "/dashboard", "/api", "/logout"}, auth.Middleware(func(c *fiber.Ctx) auth.SessionClient {
		return service.sessions.ClientFor(c)
	}))

	if cfg.Webserver.RateLimit.Enabled {
		app.Use([]string{login.Path, register.Path}, newLimiter(cfg))
	}

	deps := &handler.Deps{
		Cfg:      cfg,
		Data:     backend.Data,
		Validate: validator.New(),
	}

	for _, h := range []handler.Service{
		&login.Handler,
		&register.Handler,
		&logout.Handler,
		&dashboard.Handler,
		&admin.Handler,
		&api.Handler,
	} {
		if err := h.Init(app, deps); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(cfg.Routes.DefaultPath)
	})

	return service, nil
}

func (s *Service) health(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

func newTemplateEngine(cfg *config.Config) *html.Engine {
	engine := html.NewFileSystem(http.FS(subFS(embeddedTemplates, "templates")), ".gohtml")

	// in dev mode, use local filesystem for templates
	if cfg.DevMode {
		engine = html.New("./internal/web/templates", ".gohtml")
		engine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	engine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	engine.AddFunc("sub", func(a, b int) int {
		return a - b
	})

	return engine
}

// newLimiter throttles credential submissions per client address.
// Counters live in the database when several instances share the load.
func newLimiter(cfg *config.Config) fiber.Handler {
	rl := cfg.Webserver.RateLimit

	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},
		Max:        rl.Max,
		Expiration: rl.Expiration,
		Storage:    limiterStorage(cfg),
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString(msgRateLimited)
		},
	})
}

func limiterStorage(cfg *config.Config) fiber.Storage {
	switch cfg.Webserver.RateLimit.Storage {
	case config.DriverPostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.URI(&cfg.DB),
			Table:         rateLimitTable,
		})
	case config.DriverMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.URI(&cfg.DB),
			Table:         rateLimitTable,
		})
	default:
		return nil // in memory
	}
}

func signedInUserID(c *fiber.Ctx) string {
	p, ok := auth.FromContext(c.UserContext())
	if !ok {
		return ""
	}

	if u := p.User(); u != nil {
		return u.ID
	}

	return ""
}
