package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with a per-entry TTL. Get reports a miss
// with ok=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
