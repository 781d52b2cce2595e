// Package session keeps the resolved identity of a browser session.
//
// A browser session is identified by a random id carried in a cookie. The
// identity is stored JSON encoded in a fiber.Storage and replaced wholesale on
// every write.
package session

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/config"
	"github.com/mealdesk/mealdesk-web/internal/models"
)

const (
	// DefaultCookieName is the browser session cookie used when none is configured.
	DefaultCookieName = "mealdesk_sid"

	// DefaultExpiry is the identity lifetime used when none is configured.
	DefaultExpiry = 24 * time.Hour

	localsStore    = "session_store"
	identityPrefix = "identity:"
)

var (
	// ErrStorageNil is returned when a store has no storage.
	ErrStorageNil = errors.New("session storage is nil")
	// ErrUserNil is returned when a nil identity is stored.
	ErrUserNil = errors.New("user is nil")
)

// Store holds the identity of one browser session.
type Store struct {
	id      string
	storage fiber.Storage
	expiry  time.Duration
}

// NewStore returns the store of the browser session id.
func NewStore(id string, storage fiber.Storage, expiry time.Duration) *Store {
	return &Store{id: id, storage: storage, expiry: expiry}
}

// ID returns the browser session id.
func (s *Store) ID() string {
	return s.id
}

func (s *Store) key() string {
	return identityPrefix + s.id
}

// SetUser replaces the stored identity.
func (s *Store) SetUser(user *models.User) error {
	if s.storage == nil {
		return ErrStorageNil
	}

	if user == nil {
		return ErrUserNil
	}

	out, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return s.storage.Set(s.key(), out, s.expiry)
}

// User returns the stored identity. Storage failures count as absent.
func (s *Store) User() (*models.User, bool) {
	if s.storage == nil {
		return nil, false
	}

	raw, err := s.storage.Get(s.key())
	if err != nil {
		log.Warn().Err(err).Str("session", s.id).Msg("failed to read session identity")

		return nil, false
	}

	if len(raw) == 0 {
		return nil, false
	}

	user := new(models.User)
	if err = json.Unmarshal(raw, user); err != nil {
		log.Warn().Err(err).Str("session", s.id).Msg("stored session identity is corrupt")

		return nil, false
	}

	return user, true
}

// Clear removes the stored identity.
func (s *Store) Clear() error {
	if s.storage == nil {
		return ErrStorageNil
	}

	return s.storage.Delete(s.key())
}

// Manager hands out the Store of a request.
type Manager struct {
	storage    fiber.Storage
	cookieName string
	expiry     time.Duration
	secure     bool
}

// NewManager creates a Manager. Secure cookies are used unless devMode is set.
func NewManager(storage fiber.Storage, cfg config.Session, devMode bool) *Manager {
	if storage == nil {
		panic("storage is nil")
	}

	m := &Manager{
		storage:    storage,
		cookieName: cfg.CookieName,
		expiry:     cfg.ExpiryTime,
		secure:     !devMode,
	}

	if m.cookieName == "" {
		m.cookieName = DefaultCookieName
	}

	if m.expiry <= 0 {
		m.expiry = DefaultExpiry
	}

	return m
}

// Storage returns the storage shared by all stores.
func (m *Manager) Storage() fiber.Storage {
	return m.storage
}

// CookieName returns the name of the browser session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// UpstreamCookie returns the Cookie header of the request without the
// browser session cookie, which only this front end reads.
func (m *Manager) UpstreamCookie(c *fiber.Ctx) string {
	var out strings.Builder

	c.Request().Header.VisitAllCookie(func(key, value []byte) {
		if string(key) == m.cookieName {
			return
		}

		if out.Len() > 0 {
			out.WriteString("; ")
		}

		out.Write(key)
		out.WriteByte('=')
		out.Write(value)
	})

	return out.String()
}

// Acquire returns the Store of the request. A browser without a valid session
// cookie gets a new session id.
func (m *Manager) Acquire(c *fiber.Ctx) *Store {
	if s := FromLocals(c); s != nil {
		return s
	}

	// the id outlives the request in background resolutions
	id := strings.Clone(c.Cookies(m.cookieName))
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()

		c.Cookie(&fiber.Cookie{
			Name:     m.cookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(m.expiry.Seconds()),
			Secure:   m.secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	s := NewStore(id, m.storage, m.expiry)
	c.Locals(localsStore, s)

	return s
}

// FromLocals returns the Store acquired for the request, nil if there is none.
func FromLocals(c *fiber.Ctx) *Store {
	s, _ := c.Locals(localsStore).(*Store)

	return s
}
