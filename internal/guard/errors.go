package guard

import "errors"

var (
	// ErrRouteUnrecognized is the cause of a not-found decision.
	ErrRouteUnrecognized = errors.New("route is not recognized")

	// ErrStaleFailure marks a failed resolution that settled while the
	// session already held an identity. It never reaches the browser.
	ErrStaleFailure = errors.New("stale resolution failure ignored")

	// ErrSuperseded is the result of a resolution whose session was
	// forgotten, by a login or logout, while it was running.
	ErrSuperseded = errors.New("session changed while resolving")
)
