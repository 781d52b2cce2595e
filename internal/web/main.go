// Package web is the HTTP front end: it serves the pages behind the
// navigation guard.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/config"
	"github.com/mealdesk/mealdesk-web/internal/guard"
	fiberlogger "github.com/mealdesk/mealdesk-web/internal/logger/adapter/fiber"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/account"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/dashboard"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/home"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/login"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/logout"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/meals"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/refresh"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/register"
)

const (
	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"

	// StaticPath is the prefix of the embedded static files.
	StaticPath = "/static"

	// NotFoundTemplate is rendered for unknown destinations.
	NotFoundTemplate = "errors/404"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	Guard        *guard.Guard
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error, 1)

	s.alive.Store(true)

	go func() {
		err := s.App.Listen(addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		doneFiber <- err
	}()

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown waits for a termination signal and shuts the service down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown stops the service. Unless fast shutdown is set, checkalive fails
// for the configured shutdown time first, so load balancers can take this
// instance out of rotation.
func (s *Service) Shutdown() {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether checkalive answers with success.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// New creates a new web service. The guard in front of every page resolves
// sessions through res; deps.Guard is set to it.
func New(cfg *config.Config, deps *handler.Deps, res guard.Resolver) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps == nil || deps.Sessions == nil || res == nil {
		panic("deps, sessions and resolver cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          newViews(cfg),
			ErrorHandler:   errorHandler,
		},
	)

	service := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: cfg.Webserver.CheckAliveURI,
	}))

	app.Get(cfg.Webserver.CheckAliveURI, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// serve embedded static files
	app.Use(StaticPath,
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	service.Guard = guard.New(guard.Config{
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()

			return strings.HasPrefix(p, StaticPath+"/") ||
				p == MetricsPath ||
				p == cfg.Webserver.CheckAliveURI
		},
		Classifier: route.NewClassifier(
			cfg.Guard.PublicRoutes,
			cfg.Guard.ProtectedRoutes,
			cfg.Guard.ExemptRoutes,
		),
		Sessions:        deps.Sessions,
		Resolver:        res,
		Notifier:        deps.Flash,
		DefaultRedirect: cfg.Guard.DefaultRedirect,
		LoadingWait:     cfg.Guard.LoadingWait,
		OutcomeTTL:      cfg.Guard.OutcomeTTL,
		ResolveTimeout:  cfg.Backend.Timeout,
		LoadingLayout:   handler.BaseLayout,
	})
	deps.Guard = service.Guard

	app.Use(service.Guard.Handler())

	// init handlers
	services := []handler.Service{
		&home.Handler,
		&login.Handler,
		&register.Handler,
		&logout.Handler,
		&refresh.Handler,
		&dashboard.Handler,
		&meals.Handler,
		&account.Handler,
	}

	for _, h := range services {
		if err := h.Init(app, deps); err != nil {
			log.Fatal().Err(err).Msg(handler.ErrNilDepsFatalLogMsg)
		}
	}

	return service
}

func newViews(cfg *config.Config) *html.Engine {
	templateEngine := html.NewFileSystem(http.FS(templateFS()), ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		if _, err := os.Stat("./internal/web/templates"); err == nil {
			templateEngine = html.New("./internal/web/templates", ".gohtml")
			templateEngine.ShouldReload = true

			log.Warn().Msg("debug mode enabled: using local filesystem for templates")
		}
	}

	templateEngine.AddFunc("money", func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	})

	return templateEngine
}

// errorHandler renders the not found page and falls back to fiber's default
// for anything else.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code == fiber.StatusNotFound {
		c.Status(fiber.StatusNotFound)

		return c.Render(NotFoundTemplate, fiber.Map{
			"Title": "Not Found",
			"Path":  c.Path(),
		}, handler.BaseLayout)
	}

	return fiber.DefaultErrorHandler(c, err)
}
