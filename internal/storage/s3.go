package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Files above this size are sent as multipart uploads.
const defaultPartSize = 16 * 1024 * 1024

// S3Config holds AWS S3 connection settings.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string // optional, forces path-style addressing
	Accelerate      bool   // ignored when Endpoint is set
}

// S3Client implements Client using the AWS SDK.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Client creates a new AWS S3 storage client.
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		tr.MaxIdleConns = 100
		tr.MaxIdleConnsPerHost = 32
		tr.IdleConnTimeout = 90 * time.Second
		tr.TLSHandshakeTimeout = 10 * time.Second
		tr.ExpectContinueTimeout = 1 * time.Second
		tr.ForceAttemptHTTP2 = true
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
			return
		}
		o.UseAccelerate = cfg.Accelerate
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = defaultPartSize
	})

	return &S3Client{client: client, uploader: uploader}, nil
}

// ListBuckets returns the names of all buckets visible to the credentials.
func (c *S3Client) ListBuckets(ctx context.Context) ([]string, error) {
	// accelerate endpoints only serve object operations
	out, err := c.client.ListBuckets(ctx, &s3.ListBucketsInput{}, func(o *s3.Options) {
		o.UseAccelerate = false
	})
	if err != nil {
		return nil, s3Error("list buckets", err)
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

// PutObject uploads the file at localPath to bucket under key.
func (c *S3Client) PutObject(ctx context.Context, localPath, bucket, key string) error {
	f, info, err := openRegular(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return s3Error("put "+bucket+"/"+key, err)
	}
	return nil
}

func s3Error(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return remoteError(op, apiErr.ErrorCode(), err)
	}
	return serviceError(op, err)
}

var _ Client = (*S3Client)(nil)
