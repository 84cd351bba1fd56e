package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store is the opaque byte store behind uploaded images. Keys come from the
// ingestion pipeline; nothing in here interprets them.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// URLFor returns the path a browser fetches the bytes from.
	URLFor(key string) string
}
