package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/uniedit/reelforge/internal/port/outbound"
)

// objectAPI is the subset of *s3.Client used for writes.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// presignAPI is the subset of *s3.PresignClient used for read links.
type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Storage implements StoragePort on one bucket.
type Storage struct {
	objects   objectAPI
	presigner presignAPI
	config    *Config
}

// NewStorage creates a storage adapter backed by client.
func NewStorage(client *s3.Client, cfg *Config) *Storage {
	return newStorage(client, s3.NewPresignClient(client), cfg)
}

func newStorage(objects objectAPI, presigner presignAPI, cfg *Config) *Storage {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Storage{objects: objects, presigner: presigner, config: cfg.withDefaults()}
}

// Bucket returns the bucket name.
func (s *Storage) Bucket() string {
	return s.config.Bucket
}

// Put uploads an object.
func (s *Storage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Delete removes an object.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// GetPresignedURL returns a read URL for key. With a public base URL configured
// the object is addressed there directly and duration is ignored.
func (s *Storage) GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	if base := strings.TrimRight(s.config.PublicBaseURL, "/"); base != "" {
		return base + "/" + escapeKey(key), nil
	}
	if duration <= 0 {
		duration = s.config.PresignExpiry
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = duration
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Compile-time interface check
var _ outbound.StoragePort = (*Storage)(nil)
