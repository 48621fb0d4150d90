package outbound

import (
	"context"
	"time"
)

// CachePort defines key-value cache operations.
type CachePort interface {
	// Get retrieves a value. A missing key returns nil and no error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error
}
