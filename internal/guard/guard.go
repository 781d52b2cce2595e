package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	fiberlogger "github.com/mealdesk/mealdesk-web/internal/logger/adapter/fiber"
	"github.com/mealdesk/mealdesk-web/internal/models"
	"github.com/mealdesk/mealdesk-web/internal/notify"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/session"
)

const (
	// DefaultLoadingWait is how long a navigation waits for a pending resolution.
	DefaultLoadingWait = 2 * time.Second

	// DefaultOutcomeTTL is how long a settled resolution is reused.
	DefaultOutcomeTTL = 5 * time.Second

	// LoadingView is the template rendered while a resolution is pending.
	LoadingView = "loading"

	// loadingRefreshSeconds is the reload interval of the loading page.
	loadingRefreshSeconds = 1

	flightPrefix = "currentUser:"
)

// Resolver resolves the identity of a browser session.
type Resolver interface {
	Resolve(ctx context.Context, creds *backend.Credentials) (*models.User, error)
}

// Config of the guard middleware.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	Classifier *route.Classifier
	Sessions   *session.Manager
	Resolver   Resolver

	// Notifier receives the error message of every redirect to the login page.
	//
	// Optional. Default: nil
	Notifier notify.Sink

	// DefaultRedirect is the return destination for non protected paths.
	DefaultRedirect string

	// LoadingWait bounds how long a page navigation waits for a pending
	// resolution before the loading page is rendered.
	LoadingWait time.Duration

	// OutcomeTTL is how long a settled resolution is reused. Zero disables
	// reuse.
	OutcomeTTL time.Duration

	// ResolveTimeout bounds a single resolution.
	ResolveTimeout time.Duration

	// LoadingView and LoadingLayout name the loading page templates.
	LoadingView   string
	LoadingLayout string
}

// Guard is the navigation guard middleware.
type Guard struct {
	cfg      Config
	machine  *Machine
	flights  singleflight.Group
	outcomes *outcomes

	// mu orders identity writes of resolutions against Forget.
	mu      sync.Mutex
	seq     uint64
	running map[string]uint64 // key -> token of the current resolution
}

// New creates a Guard.
func New(cfg Config) *Guard {
	if cfg.Classifier == nil || cfg.Sessions == nil || cfg.Resolver == nil {
		panic("guard: classifier, sessions and resolver are required")
	}

	if cfg.LoadingWait <= 0 {
		cfg.LoadingWait = DefaultLoadingWait
	}

	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = backend.DefaultTimeout
	}

	if cfg.LoadingView == "" {
		cfg.LoadingView = LoadingView
	}

	return &Guard{
		cfg:      cfg,
		machine:  NewMachine(cfg.DefaultRedirect),
		outcomes: newOutcomes(cfg.OutcomeTTL, time.Now),
		running:  make(map[string]uint64),
	}
}

// Forget drops the remembered resolution of the browser session sid, so the
// next navigation resolves again. A resolution still running for sid is
// superseded: its result is neither stored nor remembered. Callers changing
// the stored identity call Forget first.
func (g *Guard) Forget(sid string) {
	key := flightPrefix + sid

	g.mu.Lock()
	delete(g.running, key)
	g.mu.Unlock()

	g.outcomes.forget(key)
	g.flights.Forget(key)
}

// Handler returns the fiber middleware.
func (g *Guard) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.cfg.Next != nil && g.cfg.Next(c) {
			return c.Next()
		}

		var (
			in     = Input{Class: g.cfg.Classifier.Classify(c.Path())}
			store  *session.Store
			resErr error
		)

		if in.Class.IsRecognized() {
			store = g.cfg.Sessions.Acquire(c)
			_, in.HasIdentity = store.User()

			if !in.HasIdentity && !in.Class.IsExempt {
				in.Resolution, resErr = g.resolve(c, store)

				// a login may have completed while the resolution was running
				if in.Resolution == PhaseFailed {
					_, in.HasIdentity = store.User()
				}
			}
		}

		d := g.machine.Evaluate(in)

		c.Locals(fiberlogger.LocalsDecision, d.Kind.String())
		decisionsTotal.WithLabelValues(d.Kind.String()).Inc()

		log.Debug().
			Str("path", in.Class.Path).
			Str("decision", d.Kind.String()).
			Str("state", d.State.String()).
			Str("target", d.Target).
			Msg("navigation evaluated")

		switch d.Kind {
		case KindRender:
			if errors.Is(d.Err, ErrStaleFailure) {
				log.Debug().Err(resErr).Str("session", store.ID()).Msg(d.Err.Error())
			}

			return c.Next()
		case KindLoading:
			return g.renderLoading(c)
		case KindRedirect:
			g.notify(store, resErr)

			return c.Redirect(d.Target, fiber.StatusFound)
		default:
			return fiber.ErrNotFound
		}
	}
}

// resolve returns the resolution phase of the session and, for a failure, its
// cause.
func (g *Guard) resolve(c *fiber.Ctx, store *session.Store) (Phase, error) {
	key := flightPrefix + store.ID()

	if o, ok := g.outcomes.get(key); ok {
		relayCookies(c, o.renewed)

		return phaseOf(o), o.err
	}

	creds := &backend.Credentials{Cookie: g.cfg.Sessions.UpstreamCookie(c)}

	ch := g.flights.DoChan(key, func() (any, error) {
		return g.settle(key, store, creds), nil
	})

	// only page navigations get the loading page, anything else waits for
	// the resolution to settle
	var wait <-chan time.Time

	if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
		timer := time.NewTimer(g.cfg.LoadingWait)
		defer timer.Stop()

		wait = timer.C
	}

	select {
	case r := <-ch:
		o, _ := r.Val.(outcome)
		relayCookies(c, o.renewed)

		return phaseOf(o), o.err
	case <-wait:
		return PhasePending, nil
	}
}

// settle runs one resolution and records its outcome. It runs detached from
// the request that started it.
func (g *Guard) settle(key string, store *session.Store, creds *backend.Credentials) outcome {
	g.mu.Lock()
	g.seq++
	token := g.seq
	g.running[key] = token
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.ResolveTimeout)
	defer cancel()

	user, err := g.cfg.Resolver.Resolve(ctx, creds)
	if err == nil && user == nil {
		err = backend.ErrNoUser
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running[key] != token {
		resolutionsTotal.WithLabelValues("superseded").Inc()
		log.Debug().Str("session", store.ID()).Msg(ErrSuperseded.Error())

		return outcome{err: ErrSuperseded}
	}

	delete(g.running, key)

	if err != nil {
		resolutionsTotal.WithLabelValues("failure").Inc()
	} else {
		resolutionsTotal.WithLabelValues("success").Inc()

		if errSet := store.SetUser(user); errSet != nil {
			log.Error().Err(errSet).Str("session", store.ID()).Msg("failed to store resolved identity")
		}
	}

	o := outcome{user: user, err: err, renewed: creds.Renewed}
	g.outcomes.put(key, o)

	return o
}

func (g *Guard) renderLoading(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")

	bind := fiber.Map{
		"Title":   "Loading",
		"Refresh": loadingRefreshSeconds,
		"URL":     c.OriginalURL(),
	}

	if g.cfg.LoadingLayout != "" {
		return c.Render(g.cfg.LoadingView, bind, g.cfg.LoadingLayout)
	}

	return c.Render(g.cfg.LoadingView, bind)
}

func (g *Guard) notify(store *session.Store, cause error) {
	if g.cfg.Notifier == nil || store == nil || cause == nil || errors.Is(cause, ErrSuperseded) {
		return
	}

	if err := g.cfg.Notifier.NotifyError(store.ID(), cause.Error()); err != nil {
		log.Warn().Err(err).Str("session", store.ID()).Msg("failed to queue notification")
	}
}

func phaseOf(o outcome) Phase {
	if o.err != nil {
		return PhaseFailed
	}

	return PhaseSucceeded
}

func relayCookies(c *fiber.Ctx, cookies []string) {
	for _, raw := range cookies {
		c.Response().Header.Add(fiber.HeaderSetCookie, raw)
	}
}
