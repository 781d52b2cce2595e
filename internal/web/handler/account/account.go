// Package account shows the identity of the signed in user.
package account

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mealdesk/mealdesk-web/internal/guard"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
	"github.com/mealdesk/mealdesk-web/internal/web/navigation"
)

const (
	// Path is the path to the account page.
	Path = route.Dashboard + "/account"

	// TemplateName is the name of the account template.
	TemplateName = "dashboard/account"
)

// Service is the account handler service.
type Service struct {
	deps *handler.Deps
}

var _ handler.Service = (*Service)(nil)

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get renders the account page.
func (s *Service) Get(c *fiber.Ctx) error {
	user, ok := handler.Store(c, s.deps).User()
	if !ok {
		return c.Redirect(route.Login + "?redirect=" + guard.PercentEncode(Path))
	}

	bind := handler.Bind(c, s.deps, "Account")
	bind["Navigation"] = navigation.NewContext("Account", navigation.SectionAccount, user).
		AddBreadcrumb("Account", Path)

	return c.Render(TemplateName, bind, handler.BaseLayout)
}
