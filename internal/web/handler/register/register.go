// Package register provides the account registration page.
package register

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
	// Path is the path to the registration page.
	Path = route.Register

	// TemplateName is the name of the registration template.
	TemplateName = "register"

	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6
)

var (
	// ErrInvalidFormData is shown when the form fails validation.
	ErrInvalidFormData = errors.New("please fill in your name, a valid e-mail address and a password of at least 6 characters")

	// ErrPasswordMismatch is shown when the password confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrRegistrationFailed is shown for unexpected backend failures.
	ErrRegistrationFailed = errors.New("registration failed, please try again later")
)

// Form is the submitted registration form.
type Form struct {
	FullName        string `form:"fullName" validate:"required,max=100"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword"`
}

// Service is the registration handler service.
type Service struct {
	deps     *handler.Deps
	validate *validator.Validate
}

var _ handler.Service = (*Service)(nil)

// Handler is the registration handler.
var Handler = Service{}

// Init initializes the registration handler.
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

func (s *Service) render(c *fiber.Ctx, form *Form, err error) error {
	bind := handler.Bind(c, s.deps, "Register")
	bind["FullName"] = ""
	bind["Email"] = ""

	if form != nil {
		bind["FullName"] = form.FullName
		bind["Email"] = form.Email
	}

	if err != nil {
		bind["Error"] = err.Error()
	}

	return c.Render(TemplateName, bind, handler.BaseLayout)
}

// Get handles the registration page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, nil, nil)
}

// Post handles the registration form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.render(c, nil, ErrInvalidFormData)
	}

	if err := s.validate.Struct(form); err != nil {
		return s.render(c, form, ErrInvalidFormData)
	}

	if form.ConfirmPassword != "" && form.ConfirmPassword != form.Password {
		return s.render(c, form, ErrPasswordMismatch)
	}

	err := s.deps.Backend.Register(c.UserContext(), handler.Credentials(c, s.deps), backend.Registration{
		FullName: form.FullName,
		Email:    form.Email,
		Password: conceal.New(form.Password),
	})
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.Code < fiber.StatusInternalServerError {
			return s.render(c, form, statusErr)
		}

		log.Error().Err(err).Msg("registration failed")

		return s.render(c, form, ErrRegistrationFailed)
	}

	handler.FlashInfo(c, s.deps, "Registration successful, please sign in.")

	return c.Redirect(route.Login)
}
