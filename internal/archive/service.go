package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/kacper-wojtaszczyk/archive-go/internal/model"
	"github.com/kacper-wojtaszczyk/archive-go/internal/snapshot"
)

// StorageClient lists buckets and writes local files to object storage.
type StorageClient interface {
	ListBuckets(ctx context.Context) ([]string, error)
	PutObject(ctx context.Context, localPath, bucket, key string) error
}

// Options configures a Service.
type Options struct {
	Bucket      string
	Prefix      string
	KeyMapping  model.KeyMapping
	Concurrency int  // parallel uploads in a batch, values below 1 mean 1
	DryRun      bool // plan and log, never call PutObject
	Excludes    []string
	Includes    []string
}

// Service orchestrates archive steps: plan keys, then upload.
type Service struct {
	storage StorageClient
	opts    Options
}

func NewService(storage StorageClient, opts Options) *Service {
	if opts.KeyMapping == "" {
		opts.KeyMapping = model.BaseIncluded
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Service{storage: storage, opts: opts}
}

// ListBuckets logs and returns every bucket visible to the credentials.
func (s *Service) ListBuckets(ctx context.Context) ([]string, error) {
	buckets, err := s.storage.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	for _, b := range buckets {
		slog.InfoContext(ctx, "bucket", "name", b)
	}
	slog.DebugContext(ctx, "buckets listed", "count", len(buckets))
	return buckets, nil
}

// UploadFile uploads a single file under its base name. Any failure is
// returned; there is no partial outcome.
func (s *Service) UploadFile(ctx context.Context, localPath string) (UploadResult, error) {
	task, err := PlanFile(localPath, s.opts.Prefix)
	if err != nil {
		return UploadResult{}, err
	}

	res := s.put(ctx, task)
	if res.Err != nil {
		return res, fmt.Errorf("upload %s to %s/%s: %w", task.LocalPath, s.opts.Bucket, task.ObjectKey, res.Err)
	}
	return res, nil
}

// UploadDirectory uploads every regular file under dir. Individual
// failures are recorded in the report and do not stop the batch; only a
// missing or unreadable dir is returned as an error.
func (s *Service) UploadDirectory(ctx context.Context, dir string) (*Report, error) {
	filter, err := NewFilter(dir, s.opts.Excludes, s.opts.Includes)
	if err != nil {
		return nil, err
	}
	plan, err := PlanDirectory(dir, s.opts.KeyMapping, s.opts.Prefix, filter)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "directory upload started",
		"dir", plan.Root,
		"bucket", s.opts.Bucket,
		"key_mapping", s.opts.KeyMapping,
		"files", len(plan.Tasks),
		"excluded", plan.Excluded,
		"unreadable", len(plan.Failed),
	)
	for _, f := range plan.Failed {
		slog.ErrorContext(ctx, "cannot read local entry", "local", f.Task.LocalPath, "key", f.Task.ObjectKey, "error", f.Err)
	}
	if len(plan.Tasks) == 0 && len(plan.Failed) == 0 {
		slog.WarnContext(ctx, "no files to upload", "dir", plan.Root)
	}

	report := s.Upload(ctx, plan.Tasks)
	report.Results = append(report.Results, plan.Failed...)
	return report, nil
}

// ArchiveSnapshot uploads the snapshot directory under root for target.
// When no snapshot matches, nothing is uploaded and the error wraps
// snapshot.ErrNotFound.
func (s *Service) ArchiveSnapshot(ctx context.Context, root string, target time.Time) (snapshot.Selection, *Report, error) {
	sel, err := snapshot.Select(root, target)
	if err != nil {
		return sel, nil, err
	}
	slog.InfoContext(ctx, "snapshot selected", "date", target.Format(snapshot.DateLayout), "dir", sel.Path)

	report, err := s.UploadDirectory(ctx, sel.Path)
	return sel, report, err
}

// Upload runs tasks against storage, at most Concurrency at a time.
// Every task is attempted; results keep the order of tasks.
func (s *Service) Upload(ctx context.Context, tasks []UploadTask) *Report {
	report := &Report{
		Bucket:  s.opts.Bucket,
		DryRun:  s.opts.DryRun,
		Results: make([]UploadResult, len(tasks)),
		Started: time.Now(),
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			report.Results[i] = s.put(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	report.Finished = time.Now()
	return report
}

func (s *Service) put(ctx context.Context, task UploadTask) UploadResult {
	res := UploadResult{Task: task}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("not started: %w", err)
		slog.ErrorContext(ctx, "upload skipped", "local", task.LocalPath, "key", task.ObjectKey, "error", res.Err)
		return res
	}

	if s.opts.DryRun {
		slog.InfoContext(ctx, "dry run: would upload", "local", task.LocalPath, "bucket", s.opts.Bucket, "key", task.ObjectKey, "size", humanize.Bytes(uint64(task.Size)))
		return res
	}

	start := time.Now()
	res.Err = s.storage.PutObject(ctx, task.LocalPath, s.opts.Bucket, task.ObjectKey)
	res.Duration = time.Since(start)
	if res.Err != nil {
		slog.ErrorContext(ctx, "upload failed", "local", task.LocalPath, "bucket", s.opts.Bucket, "key", task.ObjectKey, "error", res.Err)
		return res
	}

	slog.InfoContext(ctx, "object uploaded",
		"local", task.LocalPath,
		"bucket", s.opts.Bucket,
		"key", task.ObjectKey,
		"size", humanize.Bytes(uint64(task.Size)),
		"took", res.Duration.Round(time.Millisecond),
	)
	return res
}
