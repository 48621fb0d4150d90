// Package s3 stores render outputs in S3-compatible object storage and turns
// bucket references into public URLs.
package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds object storage configuration.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	// PublicBaseURL, when set, serves objects from a public CDN instead of presigned links.
	PublicBaseURL string        `mapstructure:"public_base_url"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	OutputPrefix  string        `mapstructure:"output_prefix"`
}

func (c *Config) withDefaults() *Config {
	cfg := *c
	if cfg.Region == "" {
		cfg.Region = "auto"
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 24 * time.Hour
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = "renders/"
	}
	return &cfg
}

// NewClient creates an S3 client for the configured endpoint.
func NewClient(cfg *Config) (*s3.Client, error) {
	if cfg == nil || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, errors.New("incomplete storage configuration")
	}
	cfg = cfg.withDefaults()

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
