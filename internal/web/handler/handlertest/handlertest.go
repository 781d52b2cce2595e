// Package handlertest provides helpers for testing page handlers.
package handlertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/config"
	"github.com/mealdesk/mealdesk-web/internal/models"
	"github.com/mealdesk/mealdesk-web/internal/notify"
	"github.com/mealdesk/mealdesk-web/internal/session"
	"github.com/mealdesk/mealdesk-web/internal/web/handler"
)

// Views is a fiber.Views that records the last render and writes the
// template name.
type Views struct {
	mu     sync.Mutex
	name   string
	bind   fiber.Map
	layout []string
}

// Load implements fiber.Views.
func (v *Views) Load() error { return nil }

// Render implements fiber.Views.
func (v *Views) Render(w io.Writer, name string, data interface{}, layout ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.name = name
	v.bind, _ = data.(fiber.Map)
	v.layout = layout

	_, err := io.WriteString(w, name)

	return err
}

// Last returns the name and data of the last render.
func (v *Views) Last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.name, v.bind
}

// Storage is an in-memory fiber.Storage.
type Storage struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{data: map[string][]byte{}}
}

// Get implements fiber.Storage.
func (s *Storage) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data[key], nil
}

// Set implements fiber.Storage.
func (s *Storage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = val

	return nil
}

// Delete implements fiber.Storage.
func (s *Storage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

// Reset implements fiber.Storage.
func (s *Storage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = map[string][]byte{}

	return nil
}

// Close implements fiber.Storage.
func (s *Storage) Close() error { return nil }

// Forgetter records forgotten sessions.
type Forgetter struct {
	mu  sync.Mutex
	ids []string
}

// Forget implements handler.Forgetter.
func (f *Forgetter) Forget(sid string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ids = append(f.ids, sid)
}

// IDs returns the forgotten sessions.
func (f *Forgetter) IDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.ids...)
}

// Env is a test app with its dependencies.
type Env struct {
	App     *fiber.App
	Deps    *handler.Deps
	Views   *Views
	Storage *Storage
	Guard   *Forgetter
	SID     string
}

// New creates an Env whose backend is served by h.
func New(t *testing.T, h http.HandlerFunc) *Env {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := backend.New(srv.URL, time.Second)
	require.NoError(t, err)

	env := &Env{
		Views:   &Views{},
		Storage: NewStorage(),
		Guard:   &Forgetter{},
		SID:     uuid.NewString(),
	}

	env.Deps = &handler.Deps{
		Config:   &config.Config{Title: "MealDesk", DevMode: true},
		Backend:  client,
		Sessions: session.NewManager(env.Storage, config.Session{}, true),
		Flash:    notify.NewFlash(env.Storage, time.Minute),
		Guard:    env.Guard,
	}

	env.App = fiber.New(fiber.Config{Views: env.Views, Immutable: true})

	return env
}

// Store returns the session store of the Env's browser session.
func (e *Env) Store() *session.Store {
	return session.NewStore(e.SID, e.Storage, time.Hour)
}

// SignIn stores user as the identity of the Env's browser session.
func (e *Env) SignIn(t *testing.T, user *models.User) {
	t.Helper()

	require.NoError(t, e.Store().SetUser(user))
}

// Do sends a request carrying the Env's session cookie. A non nil form is
// sent url encoded.
func (e *Env) Do(t *testing.T, method, target string, form url.Values) *http.Response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: e.SID})

	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	return resp
}

// WriteJSON writes v as a JSON answer.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
