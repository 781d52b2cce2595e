package resolver

import "errors"

// ErrUnauthenticated is matched by every error returned from Resolve.
var ErrUnauthenticated = errors.New("unauthenticated")

// UnauthenticatedError is returned when neither the session check nor the
// refresh produced an identity. Cause is the failure of the session check.
type UnauthenticatedError struct {
	Cause error
}

// Error returns the message of the session check failure.
func (e *UnauthenticatedError) Error() string {
	if e.Cause == nil {
		return ErrUnauthenticated.Error()
	}

	return e.Cause.Error()
}

// Unwrap returns the session check failure.
func (e *UnauthenticatedError) Unwrap() error {
	return e.Cause
}

// Is matches ErrUnauthenticated.
func (e *UnauthenticatedError) Is(target error) bool {
	return target == ErrUnauthenticated
}
