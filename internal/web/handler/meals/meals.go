// Package meals provides the meal list of the dashboard.
package meals

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/guard"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
	"github.com/mealdesk/mealdesk-web/internal/web/navigation"
)

const (
	// Path is the path to the meal list.
	Path = route.Dashboard + "/meals"

	// AddPath is where admins add a meal.
	AddPath = Path + "/add"

	// TemplateName is the name of the meal list template.
	TemplateName = "dashboard/meals"
)

// Service is the meal list handler service.
type Service struct {
	deps *handler.Deps
}

var _ handler.Service = (*Service)(nil)

// Handler is the meal list handler.
var Handler = Service{}

// Init initializes the meal list handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get lists the meals. Only admins see meals that are not on offer.
func (s *Service) Get(c *fiber.Ctx) error {
	user, ok := handler.Store(c, s.deps).User()
	if !ok {
		return c.Redirect(route.Login + "?redirect=" + guard.PercentEncode(Path))
	}

	isAdmin := user.IsAdmin()

	bind := handler.Bind(c, s.deps, "Meals")
	bind["Navigation"] = navigation.NewContext("Meals", navigation.SectionMeals, user).
		AddBreadcrumb("Meals", Path)
	bind["IsAdmin"] = isAdmin
	bind["AddPath"] = AddPath

	meals, err := s.deps.Backend.Meals(c.UserContext(), handler.Credentials(c, s.deps), !isAdmin)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load meals")

		bind["Error"] = err.Error()
	}

	bind["Meals"] = meals

	return c.Render(TemplateName, bind, handler.BaseLayout)
}
