package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/config"
	"github.com/mealdesk/mealdesk-web/internal/notify"
	"github.com/mealdesk/mealdesk-web/internal/resolver"
	"github.com/mealdesk/mealdesk-web/internal/session"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
	"github.com/mealdesk/mealdesk-web/internal/web/handler/handlertest"
)

// fakeBackend accepts the session cookie accessToken=tok.
func fakeBackend(w http.ResponseWriter, r *http.Request) {
	signedIn := strings.Contains(r.Header.Get("Cookie"), "accessToken=tok")
	user := map[string]any{
		"_id":        "u1",
		"fullName":   "Bob Example",
		"email":      "bob@example.com",
		"role":       "user",
		"isVerified": true,
	}

	switch r.URL.Path {
	case "/api/auth/me":
		if !signedIn {
			handlertest.WriteJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized request"})

			return
		}

		handlertest.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
	case "/api/auth/refresh-session":
		handlertest.WriteJSON(w, http.StatusUnauthorized, map[string]any{"message": "Refresh token missing"})
	case "/api/auth/login":
		http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "tok", Path: "/"})
		handlertest.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
	default:
		http.NotFound(w, r)
	}
}

type testService struct {
	*Service
	sid string
}

func newTestService(t *testing.T) *testService {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(fakeBackend))
	t.Cleanup(srv.Close)

	client, err := backend.New(srv.URL, time.Second)
	require.NoError(t, err)

	cfg := &config.Config{
		Title: "MealDesk",
		Webserver: config.Webserver{
			CheckAliveURI: "/checkalive",
		},
		Guard: config.Guard{
			DefaultRedirect: "/dashboard",
			LoadingWait:     time.Second,
			OutcomeTTL:      time.Minute,
		},
	}

	storage := handlertest.NewStorage()
	deps := &handler.Deps{
		Config:   cfg,
		Backend:  client,
		Sessions: session.NewManager(storage, config.Session{}, true),
		Flash:    notify.NewFlash(storage, time.Minute),
	}

	s := New(cfg, deps, resolver.New(client))
	assert.Same(t, s.Guard, deps.Guard)

	return &testService{Service: s, sid: uuid.NewString()}
}

func (s *testService) do(t *testing.T, method, target string, form url.Values) (*http.Response, string) {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: s.sid})

	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}

	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(raw)
}

func TestCheckAlive(t *testing.T) {
	s := newTestService(t)

	resp, body := s.do(t, http.MethodGet, "/checkalive", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
	assert.True(t, s.Alive())

	s.alive.Store(false)

	resp, _ = s.do(t, http.MethodGet, "/checkalive", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnknownPageRendersNotFound(t *testing.T) {
	s := newTestService(t)

	resp, body := s.do(t, http.MethodGet, "/unknown/page", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")
	assert.Contains(t, body, "/unknown/page")
}

func TestProtectedPageRedirectsWithNotification(t *testing.T) {
	s := newTestService(t)

	resp, _ := s.do(t, http.MethodGet, "/dashboard/users", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fusers", resp.Header.Get(fiber.HeaderLocation))

	resp, body := s.do(t, http.MethodGet, "/login?redirect=%2Fdashboard%2Fusers", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Unauthorized request")
	assert.Contains(t, body, "Sign in")

	// shown once
	_, body = s.do(t, http.MethodGet, "/login", nil)
	assert.NotContains(t, body, "Unauthorized request")
}

func TestLoginFlow(t *testing.T) {
	s := newTestService(t)

	resp, _ := s.do(t, http.MethodGet, "/dashboard/meals", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/login?redirect=%2Fdashboard", url.Values{
		"email":    {"bob@example.com"},
		"password": {"secret1"},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp, body := s.do(t, http.MethodGet, "/dashboard", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome, Bob Example!")
	assert.Contains(t, body, "Sign out")

	resp, body = s.do(t, http.MethodGet, "/dashboard/account", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "bob@example.com")
}

func TestPublicPagesRender(t *testing.T) {
	s := newTestService(t)

	for _, p := range []string{"/", "/login", "/register"} {
		resp, body := s.do(t, http.MethodGet, p, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, p)
		assert.Contains(t, body, "<title>", p)
	}
}

func TestStaticAndMetrics(t *testing.T) {
	s := newTestService(t)

	resp, _ := s.do(t, http.MethodGet, "/static/css/app.css", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, _ = s.do(t, http.MethodGet, "/unknown/page", nil)

	resp, body := s.do(t, http.MethodGet, MetricsPath, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "guard_decisions_total")
}
