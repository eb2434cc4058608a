package archive

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/kacper-wojtaszczyk/archive-go/internal/model"
)

// FileKey is the object key of a single uploaded file: its base name.
func FileKey(localPath string) string {
	return filepath.Base(filepath.Clean(localPath))
}

// DirectoryKey maps file, located somewhere under dir, to its object key.
//
// With model.FlatRelative the key is the path of file relative to dir.
// With model.BaseIncluded the last element of dir is prepended, so
// archiving /a/b/mydir yields keys under mydir/. Keys always use '/'.
func DirectoryKey(mapping model.KeyMapping, dir, file string) (string, error) {
	dir = filepath.Clean(dir)
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is not inside %s", file, dir)
	}
	return relativeKey(mapping, filepath.Base(dir), rel)
}

// relativeKey builds the key for rel, a host path relative to a directory
// whose last element is base.
func relativeKey(mapping model.KeyMapping, base, rel string) (string, error) {
	key := filepath.ToSlash(rel)
	switch mapping {
	case model.FlatRelative:
		return key, nil
	case model.BaseIncluded:
		if base == "" || base == "." || base == string(filepath.Separator) || filepath.VolumeName(base) == base {
			// the filesystem root has no name to keep
			return key, nil
		}
		return filepath.ToSlash(base) + "/" + key, nil
	default:
		return "", fmt.Errorf("unknown key mapping %q", string(mapping))
	}
}

// WithPrefix places key under prefix. An empty prefix leaves key unchanged.
func WithPrefix(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
