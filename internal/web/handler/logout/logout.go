// Package logout ends the browser session.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
)

// Path is the path of the logout endpoint.
const Path = route.Logout

// Service is the logout handler service.
type Service struct {
	deps *handler.Deps
}

var _ handler.Service = (*Service)(nil)

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout ends the backend session and clears the stored identity. The
// backend call is best effort.
func (s *Service) Logout(c *fiber.Ctx) error {
	creds := handler.Credentials(c, s.deps)

	if err := s.deps.Backend.Logout(c.UserContext(), creds); err != nil {
		log.Warn().Err(err).Msg("backend logout failed")
	}

	handler.RelayCookies(c, creds)

	store := handler.Store(c, s.deps)
	s.deps.Guard.Forget(store.ID())

	if err := store.Clear(); err != nil {
		log.Error().Err(err).Str("session", store.ID()).Msg("failed to clear session")
	}

	return c.Redirect(route.Login)
}
