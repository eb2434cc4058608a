package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacper-wojtaszczyk/archive-go/internal/config"
)

func TestNew_Provider(t *testing.T) {
	base := config.Config{AccessKeyID: "key", SecretAccessKey: "secret", Region: "us-east-1"}

	s3cfg := base
	s3cfg.Provider = config.ProviderS3
	client, err := New(context.Background(), &s3cfg)
	require.NoError(t, err)
	assert.IsType(t, &S3Client{}, client)

	minioCfg := base
	minioCfg.Provider = config.ProviderMinIO
	minioCfg.Endpoint = "localhost:9000"
	client, err = New(context.Background(), &minioCfg)
	require.NoError(t, err)
	assert.IsType(t, &MinIOClient{}, client)

	bad := base
	bad.Provider = "ftp"
	_, err = New(context.Background(), &bad)
	assert.Error(t, err)
}

func TestClassifyLocalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not exist", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}, ErrLocalFileNotFound},
		{"permission", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}, ErrPermissionDenied},
		{"other", errors.New("disk on fire"), ErrService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyLocalError("/x", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err, "cause must stay reachable")
		})
	}
}

func TestOpenRegular_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	p := writeTempFile(t, "secret", "x")
	require.NoError(t, os.Chmod(p, 0o000))

	_, _, err := openRegular(p)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("mydir/manifest.json"))
	assert.Equal(t, defaultContentType, contentType("mydir/testfile"))
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"s3 access denied", s3Error("put b/k", &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}), ErrPermissionDenied},
		{"s3 no such bucket", s3Error("put b/k", &smithy.GenericAPIError{Code: "NoSuchBucket"}), ErrService},
		{"s3 network", s3Error("list buckets", errors.New("dial tcp: connection refused")), ErrService},
		{"minio access denied", minioError("put b/k", minio.ErrorResponse{Code: "AccessDenied"}), ErrPermissionDenied},
		{"minio quota", minioError("put b/k", minio.ErrorResponse{Code: "QuotaExceeded"}), ErrService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
		})
	}
}
