// Package login provides the sign in page.
package login

import "errors"

var (
	// ErrInvalidFormData is returned when the submitted login form cannot be parsed
	// or fails validation.
	ErrInvalidFormData = errors.New("please enter a valid e-mail address and password")

	// ErrInvalidCredentials is shown when the backend rejects the credentials.
	ErrInvalidCredentials = errors.New("invalid e-mail or password")

	// ErrInternalServerError is returned for unexpected failures during the login
	// process.
	ErrInternalServerError = errors.New("internal server error")
)
