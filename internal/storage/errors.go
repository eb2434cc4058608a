package storage

import (
	"errors"
	"fmt"
	"io/fs"
)

// Upload failure kinds. Callers match them with errors.Is.
var (
	ErrLocalFileNotFound = errors.New("local file not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrService           = errors.New("storage service error")
)

// ClassifyLocalError classifies a failure to read a local file or directory
// as ErrLocalFileNotFound, ErrPermissionDenied or ErrService.
func ClassifyLocalError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %w", ErrLocalFileNotFound, path, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrService, path, err)
	}
}

// Remote error codes reported as ErrPermissionDenied. Both S3 and MinIO use
// the S3 error vocabulary.
var deniedCodes = map[string]bool{
	"AccessDenied":      true,
	"AllAccessDisabled": true,
}

func remoteError(op, code string, err error) error {
	if deniedCodes[code] {
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, op, err)
	}
	return serviceError(op, err)
}

func serviceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrService, op, err)
}
