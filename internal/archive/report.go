package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// Status summarizes how a run ended.
type Status string

const (
	StatusAllUploaded Status = "all uploaded"
	StatusSomeFailed  Status = "some failed"
	StatusFailed      Status = "upload failed"
	StatusAborted     Status = "aborted before uploading"
)

// Report aggregates the results of a batch.
type Report struct {
	Bucket   string
	DryRun   bool
	Single   bool // one file, all or nothing
	Results  []UploadResult
	Started  time.Time
	Finished time.Time
}

// Attempted is the number of items the batch tried to upload.
func (r *Report) Attempted() int {
	return len(r.Results)
}

// Succeeded returns the results without error.
func (r *Report) Succeeded() []UploadResult {
	var out []UploadResult
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the results with an error.
func (r *Report) Failed() []UploadResult {
	var out []UploadResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Bytes is the total size of the successfully uploaded files.
func (r *Report) Bytes() int64 {
	var n int64
	for _, res := range r.Results {
		if res.OK() {
			n += res.Task.Size
		}
	}
	return n
}

// Status is StatusAllUploaded unless at least one item failed. A failed
// single-file report is StatusFailed.
func (r *Report) Status() Status {
	for _, res := range r.Results {
		if !res.OK() {
			if r.Single {
				return StatusFailed
			}
			return StatusSomeFailed
		}
	}
	return StatusAllUploaded
}

// Err wraps ErrPartialFailure when any batch item failed. A single-file
// report returns the upload error itself.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	if r.Single {
		return failed[0].Err
	}
	return fmt.Errorf("%w: %d of %d uploads failed", ErrPartialFailure, len(failed), r.Attempted())
}

// LogSummary writes the final line of a run. A nil report means the run
// stopped before any upload was attempted. It returns the run's status.
func LogSummary(ctx context.Context, r *Report, runErr error) Status {
	if r == nil {
		slog.ErrorContext(ctx, "archive finished", "status", StatusAborted, "error", runErr)
		return StatusAborted
	}

	status := r.Status()
	attrs := []any{
		"status", status,
		"bucket", r.Bucket,
		"attempted", r.Attempted(),
		"uploaded", len(r.Succeeded()),
		"failed", len(r.Failed()),
		"bytes", humanize.Bytes(uint64(r.Bytes())),
		"took", r.Finished.Sub(r.Started).Round(time.Millisecond),
		"dry_run", r.DryRun,
	}
	if status == StatusAllUploaded {
		slog.InfoContext(ctx, "archive finished", attrs...)
		return status
	}
	for _, f := range r.Failed() {
		slog.ErrorContext(ctx, "not archived", "local", f.Task.LocalPath, "key", f.Task.ObjectKey, "error", f.Err)
	}
	slog.WarnContext(ctx, "archive finished", attrs...)
	return status
}
