package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoUser is returned when the backend answered without an identity.
	ErrNoUser = errors.New("backend returned no user")

	// ErrUnauthorized is returned for 401 and 403 answers.
	ErrUnauthorized = errors.New("not authorized")

	// ErrBaseURLEmpty is returned by New when no backend URL is configured.
	ErrBaseURLEmpty = errors.New("backend url can not be empty")
)

// StatusError is a non-2xx answer of the backend.
type StatusError struct {
	Code    int
	Message string
}

// Error returns the backend message if any, else the status text.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("backend answered %d %s", e.Code, http.StatusText(e.Code))
}

// Is matches ErrUnauthorized for 401 and 403 answers.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}
