package backend

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shoenig/go-conceal"

	"github.com/mealdesk/mealdesk-web/internal/models"
)

// Registration is the payload of a new account.
type Registration struct {
	FullName string
	Email    string
	Password *conceal.Text
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login signs in with e-mail and password and returns the new identity.
func (c *Client) Login(
	ctx context.Context,
	creds *Credentials,
	email string,
	password *conceal.Text,
) (*models.User, error) {
	env, err := c.do(ctx, fiber.MethodPost, pathLogin, nil, loginPayload{
		Email:    email,
		Password: password.Unveil(),
	}, creds)
	if err != nil {
		return nil, err
	}

	if env.User == nil {
		return nil, ErrNoUser
	}

	return env.User, nil
}

// Register creates a new account. The account still has to sign in.
func (c *Client) Register(ctx context.Context, creds *Credentials, r Registration) error {
	_, err := c.do(ctx, fiber.MethodPost, pathRegister, nil, registerPayload{
		FullName: r.FullName,
		Email:    r.Email,
		Password: r.Password.Unveil(),
	}, creds)

	return err
}
