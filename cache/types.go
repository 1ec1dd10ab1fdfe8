// Package cache defines the byte-oriented cache contract used in front of the
// database and the CBOR codec for values stored in it.
package cache

import (
	"context"
	"time"
)

// Cache is a thread-safe key/value store with per-entry expiry.
type Cache interface {
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Health(ctx context.Context) error
	Close() error
}
