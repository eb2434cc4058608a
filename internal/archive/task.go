package archive

import (
	"errors"
	"time"
)

var (
	// ErrSourceNotFound means the file or directory to upload does not exist
	// or is not of the expected type.
	ErrSourceNotFound = errors.New("source not found")

	// ErrPartialFailure means a batch finished with at least one failed item.
	ErrPartialFailure = errors.New("partial upload failure")
)

// UploadTask pairs a local file with the object key it is stored under.
type UploadTask struct {
	LocalPath string
	ObjectKey string
	Size      int64 // as seen while planning, for reporting only
}

// UploadResult is the outcome of one UploadTask. A nil Err is success.
type UploadResult struct {
	Task     UploadTask
	Err      error
	Duration time.Duration
}

// OK reports whether the task was uploaded.
func (r UploadResult) OK() bool {
	return r.Err == nil
}
