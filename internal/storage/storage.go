package storage

import (
	"context"
	"fmt"

	"github.com/kacper-wojtaszczyk/archive-go/internal/config"
)

// Client is an object store that can enumerate buckets and upload files.
type Client interface {
	ListBuckets(ctx context.Context) ([]string, error)
	PutObject(ctx context.Context, localPath, bucket, key string) error
}

// New creates the Client for the configured provider.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.Provider {
	case config.ProviderS3:
		return NewS3Client(ctx, S3Config{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			Accelerate:      cfg.Accelerate,
		})
	case config.ProviderMinIO:
		return NewMinIOClient(MinIOConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKeyID,
			SecretKey: cfg.SecretAccessKey,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}
