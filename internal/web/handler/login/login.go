package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shoenig/go-conceal"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
)

const (
	// Path is the path to the login page.
	Path = route.Login

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Form is the submitted login form.
type Form struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// Service is the login handler service.
type Service struct {
	deps     *handler.Deps
	validate *validator.Validate
}

var _ handler.Service = (*Service)(nil)

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps
	s.validate = validator.New()

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)

	return nil
}

func (s *Service) render(c *fiber.Ctx, email string, err error) error {
	bind := handler.Bind(c, s.deps, "Sign in")
	bind["Redirect"] = c.Query("redirect")
	bind["Email"] = email

	if err != nil {
		bind["Error"] = err.Error()
	}

	return c.Render(TemplateName, bind, handler.BaseLayout)
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	if _, ok := handler.Store(c, s.deps).User(); ok {
		return c.Redirect(handler.ReturnTo(c, s.deps))
	}

	return s.render(c, "", nil)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.render(c, "", ErrInvalidFormData)
	}

	if err := s.validate.Struct(form); err != nil {
		return s.render(c, form.Email, ErrInvalidFormData)
	}

	creds := handler.Credentials(c, s.deps)

	user, err := s.deps.Backend.Login(c.UserContext(), creds, form.Email, conceal.New(form.Password))
	if err != nil {
		var statusErr *backend.StatusError

		switch {
		case errors.Is(err, backend.ErrUnauthorized), errors.Is(err, backend.ErrNoUser):
			return s.render(c, form.Email, ErrInvalidCredentials)
		case errors.As(err, &statusErr) && statusErr.Code < fiber.StatusInternalServerError:
			return s.render(c, form.Email, statusErr)
		default:
			log.Error().Err(err).Msg("login failed")

			return s.render(c, form.Email, ErrInternalServerError)
		}
	}

	handler.RelayCookies(c, creds)

	store := handler.Store(c, s.deps)
	s.deps.Guard.Forget(store.ID())

	if err = store.SetUser(user); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return s.render(c, form.Email, ErrInternalServerError)
	}

	log.Info().Str("user_id", user.ID).Msg("user signed in")

	return c.Redirect(handler.ReturnTo(c, s.deps))
}
