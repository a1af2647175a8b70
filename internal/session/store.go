// Package session holds the authenticated caller's identity for the lifetime
// of a browsing session. The stored AuthContext carries the grant set that
// was resolved at login; permission changes made while a session is live do
// not take effect until the principal logs in again.
package session

import (
	"context"
	"errors"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
)

var ErrSessionNotFound = errors.New("session not found")

// Store maps opaque session tokens to auth contexts.
type Store interface {
	// Create stores the context under a fresh token and returns the token.
	Create(ctx context.Context, ac auth.AuthContext) (string, error)
	// Get returns the context for a token, or ErrSessionNotFound.
	Get(ctx context.Context, token string) (*auth.AuthContext, error)
	// Delete removes a session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
