package guard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/config"
	"github.com/mealdesk/mealdesk-web/internal/models"
	"github.com/mealdesk/mealdesk-web/internal/resolver"
	"github.com/mealdesk/mealdesk-web/internal/route"
	"github.com/mealdesk/mealdesk-web/internal/session"
)

// noOpViews writes the template name.
type noOpViews struct{}

func (noOpViews) Load() error { return nil }

func (noOpViews) Render(w io.Writer, name string, _ interface{}, _ ...string) error {
	_, err := io.WriteString(w, name)

	return err
}

type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *memStorage) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data[key], nil
}

func (s *memStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = val

	return nil
}

func (s *memStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *memStorage) Reset() error { return nil }
func (s *memStorage) Close() error { return nil }

type recordingSink struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingSink) NotifyError(_, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, text)

	return nil
}

func (r *recordingSink) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.msgs...)
}

// fakeUpstream counts backend calls in order.
type fakeUpstream struct {
	mu      sync.Mutex
	calls   []string
	user    *models.User
	err     error
	refresh *models.User
}

func (f *fakeUpstream) CurrentUser(context.Context, *backend.Credentials) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "current")

	return f.user, f.err
}

func (f *fakeUpstream) RefreshSession(context.Context, *backend.Credentials) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "refresh")

	if f.refresh == nil {
		return nil, errors.New("refresh failed")
	}

	return f.refresh, nil
}

func (f *fakeUpstream) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// resolverFunc adapts a function to Resolver.
type resolverFunc func(ctx context.Context, creds *backend.Credentials) (*models.User, error)

func (f resolverFunc) Resolve(ctx context.Context, creds *backend.Credentials) (*models.User, error) {
	return f(ctx, creds)
}

type testEnv struct {
	app     *fiber.App
	guard   *Guard
	storage *memStorage
	sink    *recordingSink
	sid     string
}

func newTestEnv(t *testing.T, res Resolver, mods ...func(*Config)) *testEnv {
	t.Helper()

	env := &testEnv{
		storage: &memStorage{data: map[string][]byte{}},
		sink:    &recordingSink{},
		sid:     uuid.NewString(),
	}

	cfg := Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
		Classifier:  route.Default(),
		Sessions:    session.NewManager(env.storage, config.Session{}, true),
		Resolver:    res,
		Notifier:    env.sink,
		LoadingWait: time.Second,
		OutcomeTTL:  time.Minute,
	}

	for _, mod := range mods {
		mod(&cfg)
	}

	env.guard = New(cfg)
	env.app = fiber.New(fiber.Config{Views: noOpViews{}, Immutable: true})
	env.app.Use(env.guard.Handler())
	env.app.All("/*", func(c *fiber.Ctx) error {
		return c.SendString("page")
	})

	return env
}

func (e *testEnv) store() *session.Store {
	return session.NewStore(e.sid, e.storage, time.Hour)
}

func (e *testEnv) do(t *testing.T, method, target string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: e.sid})

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(body)
}

func (e *testEnv) get(t *testing.T, target string) (*http.Response, string) {
	t.Helper()

	return e.do(t, http.MethodGet, target)
}

func recognizedPaths() []string {
	return append(append([]string(nil), route.DefaultPublic...), route.DefaultProtected...)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	up := &fakeUpstream{err: backend.ErrNoUser}
	env := newTestEnv(t, resolver.New(up))

	for _, p := range []string{"/unknown/page", "/dashboards", "/login/extra"} {
		resp, _ := env.get(t, p)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, p)
	}

	require.NoError(t, env.store().SetUser(&models.User{ID: "1"}))

	resp, _ := env.get(t, "/unknown/page")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Empty(t, up.callList())
}

func TestIdentityPresentRendersWithoutResolving(t *testing.T) {
	up := &fakeUpstream{err: backend.ErrNoUser}
	env := newTestEnv(t, resolver.New(up))
	require.NoError(t, env.store().SetUser(&models.User{ID: "1", Role: models.RoleUser}))

	for _, p := range recognizedPaths() {
		resp, body := env.get(t, p)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, p)
		assert.Equal(t, "page", body, p)
	}

	assert.Empty(t, up.callList())
}

func TestExemptPathsSkipResolution(t *testing.T) {
	up := &fakeUpstream{err: backend.ErrNoUser}
	env := newTestEnv(t, resolver.New(up))

	for _, p := range route.DefaultExempt {
		resp, body := env.get(t, p)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, p)
		assert.Equal(t, "page", body, p)
	}

	assert.Empty(t, up.callList())
}

func TestProtectedFailureRedirectsToLogin(t *testing.T) {
	up := &fakeUpstream{err: &backend.StatusError{Code: fiber.StatusUnauthorized, Message: "Unauthorized request"}}
	env := newTestEnv(t, resolver.New(up))

	resp, _ := env.get(t, "/dashboard/users")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fusers", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, []string{"current", "refresh"}, up.callList())
	assert.Equal(t, []string{"Unauthorized request"}, env.sink.messages())

	_, ok := env.store().User()
	assert.False(t, ok)
}

func TestPublicFailureRenders(t *testing.T) {
	up := &fakeUpstream{err: backend.ErrNoUser}
	env := newTestEnv(t, resolver.New(up))

	resp, body := env.get(t, "/login")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "page", body)
	assert.Equal(t, []string{"current", "refresh"}, up.callList())
	assert.Empty(t, env.sink.messages())
}

func TestSuccessStoresIdentity(t *testing.T) {
	user := &models.User{ID: "7", FullName: "Ann", Role: models.RoleAdmin}
	up := &fakeUpstream{user: user}
	env := newTestEnv(t, resolver.New(up))

	resp, body := env.get(t, "/dashboard")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "page", body)

	got, ok := env.store().User()
	require.True(t, ok)
	assert.Equal(t, user, got)

	_, _ = env.get(t, "/dashboard/meals")
	assert.Equal(t, []string{"current"}, up.callList())
}

func TestRefreshedIdentityReplacesNothingButIsStored(t *testing.T) {
	refreshed := &models.User{ID: "8", FullName: "Bob"}
	up := &fakeUpstream{err: backend.ErrNoUser, refresh: refreshed}
	env := newTestEnv(t, resolver.New(up))

	resp, _ := env.get(t, "/dashboard/account")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	got, ok := env.store().User()
	require.True(t, ok)
	assert.Equal(t, refreshed, got)
}

func TestRepeatedEvaluationIsIdempotent(t *testing.T) {
	up := &fakeUpstream{err: backend.ErrNoUser}
	env := newTestEnv(t, resolver.New(up))

	first, _ := env.get(t, "/dashboard/requests")
	second, _ := env.get(t, "/dashboard/requests")

	assert.Equal(t, first.StatusCode, second.StatusCode)
	assert.Equal(t, first.Header.Get(fiber.HeaderLocation), second.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, []string{"current", "refresh"}, up.callList())

	public1, _ := env.get(t, "/")
	public2, _ := env.get(t, "/")
	assert.Equal(t, public1.StatusCode, public2.StatusCode)
	assert.Len(t, up.callList(), 2)
}

func TestOutcomeExpiryResolvesAgain(t *testing.T) {
	up := &fakeUpstream{err: backend.ErrNoUser}
	env := newTestEnv(t, resolver.New(up))

	now := time.Now()
	env.guard.outcomes.now = func() time.Time { return now }

	_, _ = env.get(t, "/dashboard")
	now = now.Add(2 * time.Minute)
	_, _ = env.get(t, "/dashboard")

	assert.Len(t, up.callList(), 4)
}

func TestForgetResolvesAgain(t *testing.T) {
	up := &fakeUpstream{err: backend.ErrNoUser}
	env := newTestEnv(t, resolver.New(up))

	_, _ = env.get(t, "/dashboard")
	env.guard.Forget(env.sid)
	_, _ = env.get(t, "/dashboard")

	assert.Len(t, up.callList(), 4)
}

func TestLoadingWhileResolving(t *testing.T) {
	var calls atomic.Int32

	release := make(chan struct{})
	res := resolverFunc(func(context.Context, *backend.Credentials) (*models.User, error) {
		calls.Add(1)
		<-release

		return &models.User{ID: "1"}, nil
	})

	env := newTestEnv(t, res, func(c *Config) { c.LoadingWait = 20 * time.Millisecond })

	resp, body := env.get(t, "/dashboard")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, LoadingView, body)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))

	// a second navigation joins the pending resolution
	_, body = env.get(t, "/dashboard")
	assert.Equal(t, LoadingView, body)

	close(release)

	require.Eventually(t, func() bool {
		_, ok := env.store().User()

		return ok
	}, time.Second, 5*time.Millisecond)

	_, body = env.get(t, "/dashboard")
	assert.Equal(t, "page", body)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNonNavigationWaitsForResolution(t *testing.T) {
	res := resolverFunc(func(context.Context, *backend.Credentials) (*models.User, error) {
		time.Sleep(30 * time.Millisecond)

		return nil, resolver.ErrUnauthenticated
	})

	env := newTestEnv(t, res, func(c *Config) { c.LoadingWait = time.Millisecond })

	resp, _ := env.do(t, http.MethodPost, "/dashboard/add-balance")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fadd-balance", resp.Header.Get(fiber.HeaderLocation))
}

func TestStaleFailureKeepsIdentity(t *testing.T) {
	env := new(testEnv)
	login := &models.User{ID: "9", FullName: "Signed In"}

	// the identity arrives through a login while the check is failing
	res := resolverFunc(func(context.Context, *backend.Credentials) (*models.User, error) {
		assert.NoError(t, env.store().SetUser(login))

		return nil, &resolver.UnauthenticatedError{Cause: backend.ErrNoUser}
	})

	*env = *newTestEnv(t, res)

	resp, body := env.get(t, "/dashboard/users")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "page", body)
	assert.Empty(t, env.sink.messages())

	got, ok := env.store().User()
	require.True(t, ok)
	assert.Equal(t, login, got)
}

func TestCookiesForwardedAndRelayed(t *testing.T) {
	var seen string

	res := resolverFunc(func(_ context.Context, creds *backend.Credentials) (*models.User, error) {
		seen = creds.Cookie
		creds.Renewed = append(creds.Renewed, "accessToken=new; Path=/; HttpOnly")

		return &models.User{ID: "1"}, nil
	})

	env := newTestEnv(t, res)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: env.sid})
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "old"})

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	// the browser session cookie stays with the front end
	assert.Equal(t, "accessToken=old", seen)

	var relayed bool
	for _, c := range resp.Cookies() {
		if c.Name == "accessToken" && c.Value == "new" {
			relayed = true
		}
	}

	assert.True(t, relayed)
}

func TestConcurrentNavigationsShareOneResolution(t *testing.T) {
	var calls atomic.Int32

	res := resolverFunc(func(context.Context, *backend.Credentials) (*models.User, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)

		return &models.User{ID: "1"}, nil
	})

	env := newTestEnv(t, res)

	var wg sync.WaitGroup

	bodies := make([]string, 10)
	for i := range bodies {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: env.sid})

			resp, err := env.app.Test(req, -1)
			if !assert.NoError(t, err) {
				return
			}

			body, err := io.ReadAll(resp.Body)
			assert.NoError(t, err)
			assert.NoError(t, resp.Body.Close())

			bodies[i] = string(body)
		}(i)
	}

	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())

	for i, body := range bodies {
		assert.Equal(t, "page", body, i)
	}
}

func TestLogoutSupersedesRunningResolution(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	res := resolverFunc(func(context.Context, *backend.Credentials) (*models.User, error) {
		close(started)
		<-release

		return &models.User{ID: "1"}, nil
	})

	env := newTestEnv(t, res, func(c *Config) { c.LoadingWait = 20 * time.Millisecond })

	superseded := resolutionsTotal.WithLabelValues("superseded")
	before := testutil.ToFloat64(superseded)

	_, body := env.get(t, "/dashboard")
	assert.Equal(t, LoadingView, body)

	<-started

	// logout: forget, then clear
	env.guard.Forget(env.sid)
	require.NoError(t, env.store().Clear())

	close(release)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(superseded) == before+1
	}, time.Second, 5*time.Millisecond)

	_, ok := env.store().User()
	assert.False(t, ok)

	_, ok = env.guard.outcomes.get(flightPrefix + env.sid)
	assert.False(t, ok)
	assert.Empty(t, env.sink.messages())
}

func TestLoginDuringResolutionKeepsNewIdentity(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	res := resolverFunc(func(context.Context, *backend.Credentials) (*models.User, error) {
		close(started)
		<-release

		return &models.User{ID: "old"}, nil
	})

	env := newTestEnv(t, res, func(c *Config) { c.LoadingWait = 20 * time.Millisecond })

	superseded := resolutionsTotal.WithLabelValues("superseded")
	before := testutil.ToFloat64(superseded)

	_, body := env.get(t, "/dashboard")
	assert.Equal(t, LoadingView, body)

	<-started

	login := &models.User{ID: "new", FullName: "Signed In"}
	env.guard.Forget(env.sid)
	require.NoError(t, env.store().SetUser(login))

	close(release)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(superseded) == before+1
	}, time.Second, 5*time.Millisecond)

	got, ok := env.store().User()
	require.True(t, ok)
	assert.Equal(t, login, got)
}

func TestNextSkips(t *testing.T) {
	up := &fakeUpstream{err: backend.ErrNoUser}
	env := newTestEnv(t, resolver.New(up))

	resp, body := env.get(t, "/static/app.css")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "page", body)
	assert.Empty(t, up.callList())
}

func TestNewPanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() { New(Config{}) })
}
