package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient implements Client for S3-compatible endpoints using MinIO.
type MinIOClient struct {
	client *minio.Client
}

// MinIOConfig holds MinIO connection settings.
type MinIOConfig struct {
	Endpoint  string // e.g., "localhost:9000"
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// NewMinIOClient creates a new MinIO storage client.
// No request is made until the first call.
func NewMinIOClient(cfg MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOClient{client: client}, nil
}

// ListBuckets returns the names of all buckets visible to the credentials.
func (m *MinIOClient) ListBuckets(ctx context.Context) ([]string, error) {
	buckets, err := m.client.ListBuckets(ctx)
	if err != nil {
		return nil, minioError("list buckets", err)
	}
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

// PutObject uploads the file at localPath to bucket under key.
func (m *MinIOClient) PutObject(ctx context.Context, localPath, bucket, key string) error {
	f, info, err := openRegular(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = m.client.PutObject(ctx, bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	if err != nil {
		return minioError("put "+bucket+"/"+key, err)
	}

	return nil
}

func minioError(op string, err error) error {
	return remoteError(op, minio.ToErrorResponse(err).Code, err)
}

var _ Client = (*MinIOClient)(nil)
