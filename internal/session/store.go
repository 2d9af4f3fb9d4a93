package session

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("session not found")

// Store persists session state keyed by session ID. Implementations expire
// entries on their own (Mongo TTL index, Redis key TTL); Load double-checks
// ExpiresAt regardless.
type Store interface {
	Find(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, s State) error
	Delete(ctx context.Context, id string) error
}
