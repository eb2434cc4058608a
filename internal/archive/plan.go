package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kacper-wojtaszczyk/archive-go/internal/model"
	"github.com/kacper-wojtaszczyk/archive-go/internal/storage"
)

// Plan is the set of uploads computed for a directory.
type Plan struct {
	Root     string         // absolute directory that was walked
	Tasks    []UploadTask   // regular files to upload, in walk order
	Failed   []UploadResult // entries the walk could not read
	Excluded int            // files rejected by the filter
}

// PlanFile builds the task for a single file. The key is the file's base
// name; the directory part of the path is discarded.
func PlanFile(localPath, prefix string) (UploadTask, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return UploadTask{}, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, localPath, err)
	}
	if !info.Mode().IsRegular() {
		return UploadTask{}, fmt.Errorf("%w: %s is not a regular file", ErrSourceNotFound, localPath)
	}
	return UploadTask{
		LocalPath: localPath,
		ObjectKey: WithPrefix(prefix, FileKey(localPath)),
		Size:      info.Size(),
	}, nil
}

// PlanDirectory walks dir recursively and builds one task per regular file.
// Symlinks, directories and other special files are not uploaded. Entries
// that cannot be read are recorded in Plan.Failed and the walk continues.
func PlanDirectory(dir string, mapping model.KeyMapping, prefix string, filter *Filter) (*Plan, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, dir, err)
	}
	// walk the link target but keep the name the caller used
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, dir)
	}

	plan := &Plan{Root: abs}
	keyFor := func(p string) (string, string, error) {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return "", "", err
		}
		// keys follow the path the caller named, not the link target
		key, err := DirectoryKey(mapping, abs, filepath.Join(abs, rel))
		if err != nil {
			return "", "", err
		}
		return filepath.ToSlash(rel), WithPrefix(prefix, key), nil
	}
	fail := func(p string, err error) {
		_, key, _ := keyFor(p)
		plan.Failed = append(plan.Failed, UploadResult{
			Task: UploadTask{LocalPath: p, ObjectKey: key},
			Err:  storage.ClassifyLocalError(p, err),
		})
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == root {
				return walkErr
			}
			fail(p, walkErr)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, key, err := keyFor(p)
		if err != nil {
			fail(p, err)
			return nil
		}
		if rel == IgnoreFileName {
			return nil
		}
		if !filter.Accept(rel) {
			plan.Excluded++
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			fail(p, err)
			return nil
		}
		plan.Tasks = append(plan.Tasks, UploadTask{LocalPath: p, ObjectKey: key, Size: fi.Size()})
		return nil
	})
	if err != nil {
		// root exists but cannot be listed
		return nil, fmt.Errorf("walk: %w", storage.ClassifyLocalError(dir, err))
	}

	return plan, nil
}
