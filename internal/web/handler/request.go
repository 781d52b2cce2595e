package handler

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/notify"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/session"
)

// Credentials returns the backend credentials of the request.
func Credentials(c *fiber.Ctx, deps *Deps) *backend.Credentials {
	return &backend.Credentials{Cookie: deps.Sessions.UpstreamCookie(c)}
}

// RelayCookies passes the cookies the backend set on to the browser.
func RelayCookies(c *fiber.Ctx, creds *backend.Credentials) {
	for _, raw := range creds.Renewed {
		c.Response().Header.Add(fiber.HeaderSetCookie, raw)
	}
}

// SafeRedirect returns raw if it is a local path, fallback otherwise.
func SafeRedirect(raw, fallback string) string {
	if !strings.HasPrefix(raw, "/") ||
		strings.HasPrefix(raw, "//") ||
		strings.HasPrefix(raw, "/\\") {
		return fallback
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}

	return raw
}

// Bind returns the template data every page gets: the page title, the
// identity of the session and the pending notification.
func Bind(c *fiber.Ctx, deps *Deps, title string) fiber.Map {
	store := deps.Sessions.Acquire(c)
	user, _ := store.User()

	bind := fiber.Map{
		"AppTitle": deps.Config.Title,
		"Title":    title,
		"User":     user,
	}

	msg, err := deps.Flash.Pop(store.ID())
	if err != nil {
		log.Warn().Err(err).Str("session", store.ID()).Msg("failed to read notification")
	}

	if msg != nil {
		bind["Flash"] = msg
	}

	return bind
}

// Store returns the session store of the request.
func Store(c *fiber.Ctx, deps *Deps) *session.Store {
	return deps.Sessions.Acquire(c)
}

// FlashError queues an error notification for the session of the request.
func FlashError(c *fiber.Ctx, deps *Deps, text string) {
	store := deps.Sessions.Acquire(c)
	if err := deps.Flash.NotifyError(store.ID(), text); err != nil {
		log.Warn().Err(err).Str("session", store.ID()).Msg("failed to queue notification")
	}
}

// FlashInfo queues an informational notification for the session of the request.
func FlashInfo(c *fiber.Ctx, deps *Deps, text string) {
	store := deps.Sessions.Acquire(c)
	if err := deps.Flash.NotifyInfo(store.ID(), text); err != nil {
		log.Warn().Err(err).Str("session", store.ID()).Msg("failed to queue notification")
	}
}

var _ notify.Sink = (*notify.Flash)(nil)

// ReturnTo returns the sanitized redirect query parameter of the request,
// the configured default destination if there is none.
func ReturnTo(c *fiber.Ctx, deps *Deps) string {
	fallback := deps.Config.Guard.DefaultRedirect
	if fallback == "" {
		fallback = route.Dashboard
	}

	return SafeRedirect(c.Query("redirect"), fallback)
}
