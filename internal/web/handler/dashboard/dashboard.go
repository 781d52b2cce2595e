// Package dashboard provides the dashboard overview page.
//
// Admins get the pending balance requests, the unverified accounts and the
// amounts received per month. Each card is loaded on its own and shows its
// own error, so one failing backend call does not break the page.
package dashboard

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/guard"
	"github.com/mealdesk/mealdesk-web/internal/models"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
	"github.com/mealdesk/mealdesk-web/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = route.Dashboard

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"
)

// CountCard is a card showing a single number.
type CountCard struct {
	Title    string
	Count    int
	Error    string
	Link     string
	LinkText string
}

// MonthlyBar is one month of the received amounts card.
type MonthlyBar struct {
	Label  string
	Year   int
	Amount float64
	// Percent is the bar length relative to the best month.
	Percent int
}

// TotalsCard shows the amounts received per month.
type TotalsCard struct {
	Bars  []MonthlyBar
	Error string
}

// Data is the admin part of the dashboard.
type Data struct {
	Pending    CountCard
	Unverified CountCard
	Totals     TotalsCard
}

// Service is the dashboard handler service.
type Service struct {
	deps *handler.Deps
}

var _ handler.Service = (*Service)(nil)

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	user, ok := handler.Store(c, s.deps).User()
	if !ok {
		return c.Redirect(route.Login + "?redirect=" + guard.PercentEncode(Path))
	}

	nav := navigation.NewContext("Dashboard", navigation.SectionOverview, user)

	bind := handler.Bind(c, s.deps, "Dashboard")
	bind["Navigation"] = nav
	bind["IsAdmin"] = user.IsAdmin()

	if user.IsAdmin() {
		bind["Data"] = s.load(c.UserContext(), handler.Credentials(c, s.deps).Cookie)
	}

	return c.Render(TemplateName, bind, handler.BaseLayout)
}

// load fetches the admin cards in parallel, each call with its own credentials.
func (s *Service) load(ctx context.Context, cookie string) *Data {
	data := &Data{
		Pending: CountCard{
			Title:    "Pending Requests",
			Link:     "/dashboard/requests",
			LinkText: "View Requests",
		},
		Unverified: CountCard{
			Title:    "Unverified Users",
			Link:     "/dashboard/users?verified=false",
			LinkText: "View Users",
		},
	}

	var g errgroup.Group

	g.Go(func() error {
		n, err := s.deps.Backend.CountRequests(ctx, &backend.Credentials{Cookie: cookie}, models.PaymentPending)
		data.Pending.Count, data.Pending.Error = n, cardError(err, "pending requests")

		return nil
	})

	g.Go(func() error {
		unverified := false
		n, err := s.deps.Backend.CountUsers(ctx, &backend.Credentials{Cookie: cookie}, &unverified)
		data.Unverified.Count, data.Unverified.Error = n, cardError(err, "unverified users")

		return nil
	})

	g.Go(func() error {
		totals, err := s.deps.Backend.MonthlyTotals(ctx, &backend.Credentials{Cookie: cookie})
		data.Totals.Bars, data.Totals.Error = Bars(totals), cardError(err, "monthly totals")

		return nil
	})

	_ = g.Wait()

	return data
}

func cardError(err error, card string) string {
	if err == nil {
		return ""
	}

	log.Warn().Err(err).Str("card", card).Msg("failed to load dashboard card")

	return err.Error()
}

// Bars turns monthly totals into bars scaled to the best month.
func Bars(totals []models.MonthlyTotal) []MonthlyBar {
	if len(totals) == 0 {
		return nil
	}

	var best float64
	for _, t := range totals {
		if t.TotalAmount > best {
			best = t.TotalAmount
		}
	}

	bars := make([]MonthlyBar, 0, len(totals))
	for _, t := range totals {
		bar := MonthlyBar{Label: t.MonthLabel(), Year: t.Year, Amount: t.TotalAmount}
		if best > 0 && t.TotalAmount > 0 {
			bar.Percent = int(t.TotalAmount / best * 100) //nolint:mnd
		}

		bars = append(bars, bar)
	}

	return bars
}
