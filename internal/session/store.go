package session

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists live sessions keyed by session id. Implementations honor
// the session's ExpiresAt: a Get after expiry reports ErrSessionNotFound.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
