package ports

import (
	"context"
	"time"
)

// Port: a durable key-value store with per-key TTL semantics (backed by Redis
// in production). Get returns ok=false on a clean miss.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
