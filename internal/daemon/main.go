// Package daemon wires the configured services together and runs them.
package daemon

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/config"
	"github.com/mealdesk/mealdesk-web/internal/notify"
	"github.com/mealdesk/mealdesk-web/internal/resolver"
	"github.com/mealdesk/mealdesk-web/internal/session"
	"github.com/mealdesk/mealdesk-web/internal/storage"
	"github.com/mealdesk/mealdesk-web/internal/web"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	storage    fiber.Storage
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until it was shut down.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	addr := d.cfg.Webserver.Domain + ":" + strconv.Itoa(d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Str("backend", d.cfg.Backend.URL).Msg("starting web service")

	err := d.webService.Start(addr)

	if errClose := d.storage.Close(); errClose != nil {
		log.Error().Err(errClose).Msg("failed to close session storage")
	}

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	sessionStorage, err := storage.New(cfg.Session.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	client, err := backend.New(cfg.Backend.URL, cfg.Backend.Timeout)
	if err != nil {
		_ = sessionStorage.Close()

		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	deps := &handler.Deps{
		Config:   cfg,
		Backend:  client,
		Sessions: session.NewManager(sessionStorage, cfg.Session, cfg.DevMode),
		Flash:    notify.NewFlash(sessionStorage, notify.DefaultTTL),
	}

	return &Daemon{
		cfg:        cfg,
		storage:    sessionStorage,
		webService: web.New(cfg, deps, resolver.New(client)),
	}, nil
}
