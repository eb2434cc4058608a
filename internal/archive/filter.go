package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is read from the root of an uploaded directory. It holds
// gitignore-style rules for files that must not be archived.
// The file itself is never uploaded.
const IgnoreFileName = ".archiveignore"

// ErrInvalidPattern means an include glob does not parse.
var ErrInvalidPattern = errors.New("invalid include pattern")

// Filter decides which files of a directory tree are uploaded.
// The zero value and a nil *Filter accept everything.
type Filter struct {
	ignore   *gitignore.GitIgnore
	includes []string
}

// NewFilter compiles exclude rules (gitignore syntax) and include globs
// (doublestar syntax). Rules from root/.archiveignore are appended to
// excludes when the file exists.
func NewFilter(root string, excludes, includes []string) (*Filter, error) {
	if err := ValidateIncludes(includes); err != nil {
		return nil, err
	}

	lines := append([]string(nil), excludes...)
	fileLines, err := readIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	lines = append(lines, fileLines...)

	f := &Filter{includes: includes}
	if len(lines) > 0 {
		f.ignore = gitignore.CompileIgnoreLines(lines...)
	}
	return f, nil
}

// ValidateIncludes checks include globs without touching the filesystem.
func ValidateIncludes(includes []string) error {
	for _, pattern := range includes {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}
	return nil
}

func readIgnoreFile(p string) ([]string, error) {
	file, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	slog.Debug("loaded ignore file", "path", p, "rules", len(lines))
	return lines, nil
}

// Accept reports whether the file at rel, a slash-separated path relative
// to the uploaded directory, should be uploaded.
func (f *Filter) Accept(rel string) bool {
	if f == nil {
		return true
	}
	if f.ignore != nil && f.ignore.MatchesPath(rel) {
		return false
	}
	if len(f.includes) == 0 {
		return true
	}
	for _, pattern := range f.includes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
