package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacper-wojtaszczyk/archive-go/internal/model"
	"github.com/kacper-wojtaszczyk/archive-go/internal/snapshot"
	"github.com/kacper-wojtaszczyk/archive-go/internal/storage"
)

type stubStorage struct {
	mu       sync.Mutex
	buckets  []string
	listErr  error
	failKeys map[string]error
	puts     []string // bucket/key of every PutObject call
	objects  map[string]string
	inFlight int
	maxSeen  int
	delay    time.Duration
}

func (s *stubStorage) ListBuckets(ctx context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.buckets, nil
}

func (s *stubStorage) PutObject(ctx context.Context, localPath, bucket, key string) error {
	s.mu.Lock()
	s.puts = append(s.puts, bucket+"/"+key)
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err, ok := s.failKeys[key]; ok {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return storage.ClassifyLocalError(localPath, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string]string{}
	}
	s.objects[bucket+"/"+key] = string(data)
	return nil
}

func TestService_UploadFile_Success(t *testing.T) {
	dir := filepath.Join(tempDir(t), "tmp", "data")
	writeTree(t, dir, map[string]string{"testfile": "hello"})
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	res, err := svc.UploadFile(context.Background(), filepath.Join(dir, "testfile"))
	require.NoError(t, err)
	assert.Equal(t, "testfile", res.Task.ObjectKey)
	assert.Equal(t, "hello", stub.objects["archive-bucket/testfile"])
}

func TestService_UploadFile_NotFound(t *testing.T) {
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	_, err := svc.UploadFile(context.Background(), filepath.Join(tempDir(t), "testfile"))
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Empty(t, stub.puts, "no upload may be attempted")
}

func TestService_UploadFile_StoreError(t *testing.T) {
	dir := tempDir(t)
	writeTree(t, dir, map[string]string{"testfile": "hello"})
	stub := &stubStorage{failKeys: map[string]error{"testfile": fmt.Errorf("%w: quota exceeded", storage.ErrService)}}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	res, err := svc.UploadFile(context.Background(), filepath.Join(dir, "testfile"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrService)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "archive-bucket/testfile", "error should name the target key")
	assert.False(t, res.OK())
}

func TestService_UploadDirectory_BaseIncluded(t *testing.T) {
	dir := filepath.Join(tempDir(t), "tmp", "data", "mydir")
	writeTree(t, dir, map[string]string{"a.txt": "a", "sub/b.txt": "b"})
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket", KeyMapping: model.BaseIncluded})

	report, err := svc.UploadDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, StatusAllUploaded, report.Status())
	assert.NoError(t, report.Err())
	assert.Equal(t, map[string]string{
		"archive-bucket/mydir/a.txt":     "a",
		"archive-bucket/mydir/sub/b.txt": "b",
	}, stub.objects)
	assert.EqualValues(t, 2, report.Bytes())
}

func TestService_UploadDirectory_FlatRelative(t *testing.T) {
	dir := filepath.Join(tempDir(t), "mydir")
	writeTree(t, dir, map[string]string{"a.txt": "a", "sub/b.txt": "b"})
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket", KeyMapping: model.FlatRelative})

	_, err := svc.UploadDirectory(context.Background(), dir)
	require.NoError(t, err)
	sort.Strings(stub.puts)
	assert.Equal(t, []string{"archive-bucket/a.txt", "archive-bucket/sub/b.txt"}, stub.puts)
}

func TestService_UploadDirectory_PartialFailure(t *testing.T) {
	dir := filepath.Join(tempDir(t), "mydir")
	files := map[string]string{}
	for i := 0; i < 10; i++ {
		files[fmt.Sprintf("f%02d.txt", i)] = "x"
	}
	writeTree(t, dir, files)

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			stub := &stubStorage{failKeys: map[string]error{
				"mydir/f03.txt": fmt.Errorf("%w: connection reset", storage.ErrService),
				"mydir/f07.txt": fmt.Errorf("%w: access denied", storage.ErrPermissionDenied),
			}}
			svc := NewService(stub, Options{Bucket: "archive-bucket", Concurrency: concurrency})

			report, err := svc.UploadDirectory(context.Background(), dir)
			require.NoError(t, err)

			assert.Len(t, stub.puts, 10, "every item must be attempted")
			assert.Equal(t, 10, report.Attempted())
			assert.Len(t, report.Succeeded(), 8)
			failed := report.Failed()
			require.Len(t, failed, 2)
			var failedKeys []string
			for _, f := range failed {
				failedKeys = append(failedKeys, f.Task.ObjectKey)
			}
			sort.Strings(failedKeys)
			assert.Equal(t, []string{"mydir/f03.txt", "mydir/f07.txt"}, failedKeys)
			assert.Equal(t, StatusSomeFailed, report.Status())
			assert.ErrorIs(t, report.Err(), ErrPartialFailure)
			assert.Contains(t, report.Err().Error(), "2 of 10")
		})
	}
}

func TestService_UploadDirectory_ResultsKeepSubmissionOrder(t *testing.T) {
	dir := filepath.Join(tempDir(t), "mydir")
	writeTree(t, dir, map[string]string{"a": "1", "b": "2", "c": "3", "d": "4", "e": "5"})
	stub := &stubStorage{delay: 5 * time.Millisecond}
	svc := NewService(stub, Options{Bucket: "archive-bucket", Concurrency: 3})

	report, err := svc.UploadDirectory(context.Background(), dir)
	require.NoError(t, err)
	var got []string
	for _, r := range report.Results {
		got = append(got, r.Task.ObjectKey)
	}
	assert.Equal(t, []string{"mydir/a", "mydir/b", "mydir/c", "mydir/d", "mydir/e"}, got)
	assert.LessOrEqual(t, stub.maxSeen, 3)
}

func TestService_UploadDirectory_SequentialByDefault(t *testing.T) {
	dir := filepath.Join(tempDir(t), "mydir")
	writeTree(t, dir, map[string]string{"a": "1", "b": "2", "c": "3"})
	stub := &stubStorage{delay: 2 * time.Millisecond}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	_, err := svc.UploadDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.maxSeen)
}

func TestService_UploadDirectory_NotFound(t *testing.T) {
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	report, err := svc.UploadDirectory(context.Background(), filepath.Join(tempDir(t), "missing"))
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Nil(t, report)
	assert.Empty(t, stub.puts)
}

func TestService_UploadDirectory_Idempotent(t *testing.T) {
	dir := filepath.Join(tempDir(t), "mydir")
	writeTree(t, dir, map[string]string{"a.txt": "a", "sub/b.txt": "b"})
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	_, err := svc.UploadDirectory(context.Background(), dir)
	require.NoError(t, err)
	_, err = svc.UploadDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Len(t, stub.puts, 4)
	assert.Len(t, stub.objects, 2, "re-upload overwrites the same keys")
}

func TestService_UploadDirectory_DryRun(t *testing.T) {
	dir := filepath.Join(tempDir(t), "mydir")
	writeTree(t, dir, map[string]string{"a.txt": "a", "sub/b.txt": "b"})
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket", DryRun: true})

	report, err := svc.UploadDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, stub.puts)
	assert.Equal(t, StatusAllUploaded, report.Status())
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Attempted())
}

func TestService_UploadDirectory_Cancelled(t *testing.T) {
	dir := filepath.Join(tempDir(t), "mydir")
	writeTree(t, dir, map[string]string{"a": "1", "b": "2"})
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := svc.UploadDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, stub.puts)
	require.Len(t, report.Failed(), 2)
	assert.ErrorIs(t, report.Failed()[0].Err, context.Canceled)
}

func TestService_ListBuckets(t *testing.T) {
	stub := &stubStorage{buckets: []string{"archive-bucket", "logs"}}
	svc := NewService(stub, Options{})

	buckets, err := svc.ListBuckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"archive-bucket", "logs"}, buckets)

	stub.listErr = fmt.Errorf("%w: invalid access key", storage.ErrService)
	_, err = svc.ListBuckets(context.Background())
	assert.ErrorIs(t, err, storage.ErrService)
}

func TestService_ArchiveSnapshot(t *testing.T) {
	root := tempDir(t)
	writeTree(t, root, map[string]string{
		"2024-07-03-foo/etc/hosts": "127.0.0.1",
		"2024-07-04-bar/etc/hosts": "::1",
	})
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	sel, report, err := svc.ArchiveSnapshot(context.Background(), root, time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, "2024-07-03-foo", sel.Name)
	assert.Equal(t, StatusAllUploaded, report.Status())
	assert.Equal(t, map[string]string{"archive-bucket/2024-07-03-foo/etc/hosts": "127.0.0.1"}, stub.objects)
}

func TestService_ArchiveSnapshot_NotFound(t *testing.T) {
	root := tempDir(t)
	writeTree(t, root, map[string]string{"2024-07-03-foo/a": "a"})
	stub := &stubStorage{}
	svc := NewService(stub, Options{Bucket: "archive-bucket"})

	_, report, err := svc.ArchiveSnapshot(context.Background(), root, time.Date(2024, 7, 10, 0, 0, 0, 0, time.Local))
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
	assert.Nil(t, report)
	assert.Empty(t, stub.puts)
}
