// Package handler holds what the page handlers share.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/config"
	"github.com/mealdesk/mealdesk-web/internal/notify"
	"github.com/mealdesk/mealdesk-web/internal/session"
)

// ErrNilDeps is returned by Init when app or deps is nil.
var ErrNilDeps = errors.New(ErrNilDepsFatalLogMsg)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}

// Forgetter drops the remembered session resolution of a browser session.
// Handlers call Forget before they change the stored identity.
type Forgetter interface {
	Forget(sid string)
}

// Deps are the dependencies of the page handlers.
type Deps struct {
	Config   *config.Config
	Backend  *backend.Client
	Sessions *session.Manager
	Flash    *notify.Flash
	Guard    Forgetter
}

// Valid reports whether every dependency is set.
func (d *Deps) Valid() bool {
	return d != nil &&
		d.Config != nil &&
		d.Backend != nil &&
		d.Sessions != nil &&
		d.Flash != nil &&
		d.Guard != nil
}
