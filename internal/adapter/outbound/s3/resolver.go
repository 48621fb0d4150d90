package s3

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

// Resolver turns s3://bucket/key references and bucket-relative keys into
// fetchable URLs. Absolute http(s) URLs are left to other resolvers.
type Resolver struct {
	storage outbound.StoragePort
	bucket  string
}

// NewResolver creates a resolver for objects in bucket.
func NewResolver(storage outbound.StoragePort, bucket string) *Resolver {
	return &Resolver{storage: storage, bucket: bucket}
}

func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return "", asset.Unresolvable(raw, "empty reference")
	}

	var key string
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		if !strings.EqualFold(u.Scheme, "s3") {
			return "", fmt.Errorf("%w: scheme %s", asset.ErrNotHandled, u.Scheme)
		}
		if u.Host != r.bucket {
			return "", asset.Unresolvable(raw, "bucket "+u.Host+" not served")
		}
		key = strings.TrimPrefix(u.Path, "/")
	} else {
		// Only plain object keys count as bucket-relative.
		if strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") {
			return "", fmt.Errorf("%w: filesystem path", asset.ErrNotHandled)
		}
		key = ref
	}

	if key == "" || strings.HasSuffix(key, "/") {
		return "", asset.Unresolvable(raw, "missing object key")
	}
	if path.Clean("/"+key) != "/"+key {
		return "", asset.Unresolvable(raw, "non-canonical object key")
	}

	resolved, err := r.storage.GetPresignedURL(ctx, key, 0)
	if err != nil {
		return "", asset.Unresolvable(raw, err.Error())
	}
	u, err := url.Parse(resolved)
	if err != nil || !u.IsAbs() || (u.Scheme != "https" && u.Scheme != "http") {
		return "", asset.Unresolvable(raw, "storage returned a non-http url")
	}
	return resolved, nil
}

// Compile-time interface check
var _ asset.Resolver = (*Resolver)(nil)
