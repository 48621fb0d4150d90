package outbound

import (
	"context"
	"io"
	"time"
)

// StoragePort defines object storage operations.
type StoragePort interface {
	// Put uploads an object.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// GetPresignedURL returns a time-limited public URL for an object.
	GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
}
