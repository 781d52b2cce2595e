// Package home provides the public landing page.
package home

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
)

const (
	// Path is the path to the landing page.
	Path = route.Root

	// TemplateName is the name of the landing page template.
	TemplateName = "home"
)

// Service is the landing page handler service.
type Service struct {
	deps *handler.Deps
}

var _ handler.Service = (*Service)(nil)

// Handler is the landing page handler.
var Handler = Service{}

// Init initializes the landing page handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get renders the landing page.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, handler.Bind(c, s.deps, "Welcome"), handler.BaseLayout)
}
