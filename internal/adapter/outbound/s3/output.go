package s3

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/reelforge/internal/model"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

// OutputStore uploads rendered videos under a per-project prefix.
type OutputStore struct {
	storage outbound.StoragePort
	prefix  string
	expiry  time.Duration
	now     func() time.Time
}

// NewOutputStore creates an output store. expiry bounds presigned links.
func NewOutputStore(storage outbound.StoragePort, prefix string, expiry time.Duration) *OutputStore {
	if prefix == "" {
		prefix = "renders/"
	}
	return &OutputStore{storage: storage, prefix: prefix, expiry: expiry, now: time.Now}
}

// Upload stores the video and returns where it can be fetched.
func (o *OutputStore) Upload(ctx context.Context, projectID uuid.UUID, video *model.RenderedVideo) (*model.RenderOutput, error) {
	createdAt := o.now().UTC()
	key := fmt.Sprintf("%s%s/%s%s", o.prefix, projectID, createdAt.Format("20060102T150405Z"), extension(video.ContentType))

	if err := o.storage.Put(ctx, key, bytes.NewReader(video.Data), int64(len(video.Data)), video.ContentType); err != nil {
		return nil, fmt.Errorf("upload render: %w", err)
	}
	url, err := o.storage.GetPresignedURL(ctx, key, o.expiry)
	if err != nil {
		return nil, fmt.Errorf("upload render: %w", err)
	}

	return &model.RenderOutput{
		ProjectID:   projectID,
		Key:         key,
		URL:         url,
		SizeBytes:   int64(len(video.Data)),
		ContentType: video.ContentType,
		CreatedAt:   createdAt,
	}, nil
}

func extension(contentType string) string {
	switch contentType {
	case "video/mp4", "":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// Compile-time interface check
var _ outbound.RenderOutputStoragePort = (*OutputStore)(nil)
