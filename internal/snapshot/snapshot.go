// Package snapshot picks the dated snapshot directory to archive.
//
// Snapshot tools such as timeshift name their daily directories with a
// leading ISO-8601 date (e.g. "2024-07-03_04-00-01"). The selector finds
// the first immediate child of a root whose name starts with a target date.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kacper-wojtaszczyk/archive-go/internal/clock"
)

// DateLayout is the prefix format of snapshot directory names.
const DateLayout = "2006-01-02"

// ErrNotFound means no snapshot directory exists for the target date.
var ErrNotFound = errors.New("snapshot not found")

// Selection describes the outcome of a lookup.
type Selection struct {
	TargetDate time.Time
	Name       string // directory name, empty if not matched
	Path       string // root joined with Name
	Matched    bool
}

// Select returns the first directory directly under root whose name starts
// with target formatted as DateLayout. Entries are examined in name order.
func Select(root string, target time.Time) (Selection, error) {
	sel := Selection{TargetDate: target}
	prefix := target.Format(DateLayout)

	entries, err := os.ReadDir(root)
	if err != nil {
		return sel, fmt.Errorf("%w: read snapshot root %s: %w", ErrNotFound, root, err)
	}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		sel.Name = e.Name()
		sel.Path = filepath.Join(root, e.Name())
		sel.Matched = true
		return sel, nil
	}

	return sel, fmt.Errorf("%w: no directory for date %s under %s", ErrNotFound, prefix, root)
}

// TargetDate resolves the day to archive: date when set, otherwise the
// calendar day before c.Now().
func TargetDate(date string, c clock.Clock) (time.Time, error) {
	if date == "" {
		return clock.Yesterday(c), nil
	}
	return ParseDate(date)
}

// ParseDate parses a DateLayout string in the local time zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format: %w", err)
	}
	return t, nil
}
