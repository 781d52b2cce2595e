// Package route classifies request paths into public, protected and unknown
// destinations.
//
// Classification is pure: it depends on the configured route sets only and
// never on session state. Public routes match exactly, protected routes match
// as path prefixes on segment boundaries.
package route

import (
	"strings"

	"github.com/hashicorp/go-set/v3"
)

const (
	// Root is the landing page.
	Root = "/"
	// Login is the login page.
	Login = "/login"
	// Register is the registration page.
	Register = "/register"
	// Logout ends the session.
	Logout = "/logout"
	// RefreshSession renews the session and redirects back.
	RefreshSession = "/refresh-session"
	// Dashboard is the canonical landing page for signed-in users.
	Dashboard = "/dashboard"
)

var (
	// DefaultPublic are the routes reachable without a session.
	DefaultPublic = []string{Root, Login, Register, RefreshSession, Logout}

	// DefaultProtected are the route prefixes that need a session.
	DefaultProtected = []string{
		Dashboard,
		"/dashboard/users",
		"/dashboard/add-balance",
		"/dashboard/account",
		"/dashboard/requests",
		"/dashboard/meals",
	}

	// DefaultExempt are the routes that never trigger session resolution.
	DefaultExempt = []string{Logout, RefreshSession}
)

// Class is the classification of a single path.
type Class struct {
	Path        string
	IsPublic    bool
	IsProtected bool
	IsExempt    bool
}

// IsRecognized reports whether the path is a known destination.
func (c Class) IsRecognized() bool {
	return c.IsPublic || c.IsProtected
}

// Classifier maps paths to their Class.
type Classifier struct {
	public    *set.Set[string]
	exempt    *set.Set[string]
	protected []string
}

// NewClassifier creates a Classifier. Empty arguments fall back to the
// defaults. Exempt routes are always public as well.
func NewClassifier(public, protected, exempt []string) *Classifier {
	if len(public) == 0 {
		public = DefaultPublic
	}

	if len(protected) == 0 {
		protected = DefaultProtected
	}

	if len(exempt) == 0 {
		exempt = DefaultExempt
	}

	exempt = normalizeAll(exempt)

	c := &Classifier{
		public: set.From(normalizeAll(public)),
		exempt: set.From(exempt),
	}

	for _, p := range exempt {
		c.public.Insert(p)
	}

	for _, p := range normalizeAll(protected) {
		if p != Root {
			c.protected = append(c.protected, p)
		}
	}

	return c
}

// Default returns a Classifier over the default route sets.
func Default() *Classifier {
	return NewClassifier(nil, nil, nil)
}

// Classify normalizes p and classifies it.
func (c *Classifier) Classify(p string) Class {
	p = Normalize(p)

	return Class{
		Path:        p,
		IsPublic:    c.public.Contains(p),
		IsProtected: c.MatchesProtected(p),
		IsExempt:    c.exempt.Contains(p),
	}
}

// MatchesProtected reports whether the normalized path p equals a protected
// prefix or lies below one.
func (c *Classifier) MatchesProtected(p string) bool {
	for _, prefix := range c.protected {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	return false
}

// Normalize strips query and fragment and a trailing slash. An empty path
// becomes the root path.
func Normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	if p == "" {
		return Root
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}

	return p
}

func normalizeAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, Normalize(p))
	}

	return out
}
