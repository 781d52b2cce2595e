// Package backend is the HTTP client of the MealDesk backend API.
//
// The browser's cookies are forwarded verbatim on every call and any cookies
// the backend sets in return are collected in Credentials.Renewed, so the
// caller can relay them to the browser.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/models"
)

const (
	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 10 * time.Second

	pathCurrentUser    = "/api/auth/me"
	pathRefreshSession = "/api/auth/refresh-session"
	pathLogin          = "/api/auth/login"
	pathLogout         = "/api/auth/logout"
	pathRegister       = "/api/auth/register"
	pathRequests       = "/api/add-balance"
	pathUsers          = "/api/admin/users"
	pathDashboard      = "/api/admin/dashboard"
	pathMeals          = "/api/meals"
)

// Credentials carries the browser session to the backend and back.
type Credentials struct {
	// Cookie is the raw Cookie header of the browser request.
	Cookie string
	// Renewed holds the raw Set-Cookie values of backend answers.
	Renewed []string
}

// Client talks to the MealDesk backend.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLEmpty
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{baseURL: baseURL, timeout: timeout}, nil
}

// envelope is the common answer shape of the backend.
type envelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	User    *models.User  `json:"user"`
	Count   int           `json:"count"`
	Meals   []models.Meal `json:"meals"`
	Data    struct {
		TotalMoneyReceivedMonthly []models.MonthlyTotal `json:"totalMoneyRecievedMonthly"`
	} `json:"data"`
}

// do performs a single call. A nil body sends no payload.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
	creds *Credentials,
) (*envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(target)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return nil, fmt.Errorf("failed to prepare %s %s: %w", method, path, err)
	}

	a.Timeout(timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if creds != nil && creds.Cookie != "" {
		a.Set(fiber.HeaderCookie, creds.Cookie)
	}

	if body != nil {
		a.JSON(body)
	}

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)

	a.SetResponse(resp)

	code, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, errs[0])
	}

	if creds != nil {
		resp.Header.VisitAllCookie(func(_, value []byte) {
			creds.Renewed = append(creds.Renewed, string(value))
		})
	}

	env := new(envelope)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil && code < fiber.StatusBadRequest {
			return nil, fmt.Errorf("failed to decode %s %s answer: %w", method, path, err)
		}
	}

	if code >= fiber.StatusBadRequest {
		log.Debug().Int("status", code).Str("method", method).Str("path", path).
			Msg("backend call failed")

		return nil, &StatusError{Code: code, Message: env.Message}
	}

	return env, nil
}

// CurrentUser returns the identity of the session carried by creds.
func (c *Client) CurrentUser(ctx context.Context, creds *Credentials) (*models.User, error) {
	env, err := c.do(ctx, fiber.MethodGet, pathCurrentUser, nil, nil, creds)
	if err != nil {
		return nil, err
	}

	if env.User == nil {
		return nil, ErrNoUser
	}

	return env.User, nil
}

// RefreshSession asks the backend to renew the session. A nil user without an
// error means the session could not be renewed.
func (c *Client) RefreshSession(ctx context.Context, creds *Credentials) (*models.User, error) {
	env, err := c.do(ctx, fiber.MethodPost, pathRefreshSession, nil, nil, creds)
	if err != nil {
		return nil, err
	}

	return env.User, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context, creds *Credentials) error {
	_, err := c.do(ctx, fiber.MethodPost, pathLogout, nil, nil, creds)

	return err
}
