// Package resolver obtains the identity of a browser session.
//
// Resolve asks the backend for the current user and, when that fails, makes
// exactly one attempt to refresh the session. The refresh is never started
// before the session check has returned.
package resolver

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mealdesk/mealdesk-web/internal/backend"
	"github.com/mealdesk/mealdesk-web/internal/models"
)

// Upstream is the part of the backend the resolver needs.
type Upstream interface {
	CurrentUser(ctx context.Context, creds *backend.Credentials) (*models.User, error)
	RefreshSession(ctx context.Context, creds *backend.Credentials) (*models.User, error)
}

// Resolver resolves session identities.
type Resolver struct {
	upstream Upstream
}

// New creates a Resolver.
func New(upstream Upstream) *Resolver {
	if upstream == nil {
		panic("resolver: upstream is nil")
	}

	return &Resolver{upstream: upstream}
}

// Resolve returns the identity of the session carried by creds.
//
// If the session check fails and the refresh does not yield a user, the
// error wraps the failure of the session check, not the refresh failure.
func (r *Resolver) Resolve(ctx context.Context, creds *backend.Credentials) (*models.User, error) {
	user, err := r.upstream.CurrentUser(ctx, creds)
	if err == nil && user != nil {
		return user, nil
	}

	if err == nil {
		err = backend.ErrNoUser
	}

	refreshed, refreshErr := r.upstream.RefreshSession(ctx, creds)
	if refreshErr == nil && refreshed != nil {
		log.Debug().Err(err).Str("user_id", refreshed.ID).Msg("session renewed after failed check")

		return refreshed, nil
	}

	log.Debug().Err(err).AnErr("refresh_error", refreshErr).Msg("session could not be resolved")

	return nil, &UnauthenticatedError{Cause: err}
}
