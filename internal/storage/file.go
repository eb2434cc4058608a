package storage

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
)

const defaultContentType = "application/octet-stream"

// openRegular opens path for upload. Anything other than a regular file
// counts as a missing source.
func openRegular(p string) (*os.File, fs.FileInfo, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, ClassifyLocalError(p, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, ClassifyLocalError(p, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s: not a regular file", ErrLocalFileNotFound, p)
	}
	return f, info, nil
}

func contentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return defaultContentType
}
