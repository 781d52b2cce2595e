// Package refresh renews the backend session and sends the browser back to
// where it came from.
package refresh

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/guard"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
)

// Path is the path of the refresh endpoint.
const Path = route.RefreshSession

// Service is the session refresh handler service.
type Service struct {
	deps *handler.Deps
}

var _ handler.Service = (*Service)(nil)

// Handler is the session refresh handler.
var Handler = Service{}

// Init initializes the session refresh handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get renews the session. On success the identity is stored and the browser
// returns to the redirect parameter, otherwise it is sent to the login page.
func (s *Service) Get(c *fiber.Ctx) error {
	target := handler.ReturnTo(c, s.deps)
	creds := handler.Credentials(c, s.deps)

	user, err := s.deps.Backend.RefreshSession(c.UserContext(), creds)
	handler.RelayCookies(c, creds)

	if err != nil || user == nil {
		log.Debug().Err(err).Msg("session refresh failed")

		if err != nil {
			handler.FlashError(c, s.deps, err.Error())
		}

		return c.Redirect(route.Login + "?redirect=" + guard.PercentEncode(target))
	}

	store := handler.Store(c, s.deps)
	s.deps.Guard.Forget(store.ID())

	if err = store.SetUser(user); err != nil {
		log.Error().Err(err).Str("session", store.ID()).Msg("failed to write session")
	}

	return c.Redirect(target)
}
