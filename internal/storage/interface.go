// Package storage provides token persistence backends for the gateway.
//
// Two implementations exist: an in-memory store for single-instance
// deployments and tests, and a Redis store for deployments that need tokens
// to survive restarts. Both are safe for concurrent use and apply
// last-write-wins semantics per user.
package storage

import (
	"context"

	"threads-zapier/internal/models"
)

// TokenStore persists one OAuth token per Threads user.
type TokenStore interface {
	// Save stores the token for the given user, replacing any previous
	// token, and returns the stored record with its obtained_at timestamp.
	Save(ctx context.Context, userID string, token models.TokenPayload) (*models.StoredToken, error)

	// Get returns the stored token for the user, or (nil, nil) when no
	// token is registered.
	Get(ctx context.Context, userID string) (*models.StoredToken, error)

	// Delete removes the stored token for the user. Deleting an absent
	// token is not an error.
	Delete(ctx context.Context, userID string) error
}
