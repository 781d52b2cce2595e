package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mealdesk/mealdesk-web/internal/models"
)

// CountRequests counts add-balance requests, optionally filtered by status.
func (c *Client) CountRequests(
	ctx context.Context,
	creds *Credentials,
	status models.PaymentStatus,
) (int, error) {
	q := url.Values{"count": {"true"}}
	if status != "" {
		q.Set("status", string(status))
	}

	env, err := c.do(ctx, fiber.MethodGet, pathRequests, q, nil, creds)
	if err != nil {
		return 0, err
	}

	return env.Count, nil
}

// CountUsers counts accounts, optionally filtered by verification state.
func (c *Client) CountUsers(ctx context.Context, creds *Credentials, verified *bool) (int, error) {
	q := url.Values{"count": {"true"}}
	if verified != nil {
		q.Set("isVerified", strconv.FormatBool(*verified))
	}

	env, err := c.do(ctx, fiber.MethodGet, pathUsers, q, nil, creds)
	if err != nil {
		return 0, err
	}

	return env.Count, nil
}

// MonthlyTotals returns the amounts credited per month.
func (c *Client) MonthlyTotals(ctx context.Context, creds *Credentials) ([]models.MonthlyTotal, error) {
	env, err := c.do(ctx, fiber.MethodGet, pathDashboard, nil, nil, creds)
	if err != nil {
		return nil, err
	}

	return env.Data.TotalMoneyReceivedMonthly, nil
}

// Meals lists meals. activeOnly restricts the list to meals on offer.
func (c *Client) Meals(ctx context.Context, creds *Credentials, activeOnly bool) ([]models.Meal, error) {
	var q url.Values
	if activeOnly {
		q = url.Values{"isActive": {"true"}}
	}

	env, err := c.do(ctx, fiber.MethodGet, pathMeals, q, nil, creds)
	if err != nil {
		return nil, err
	}

	return env.Meals, nil
}
