package model

import (
	"fmt"

	"github.com/google/uuid"
)

// KeyMapping selects how local paths inside a directory become object keys.
type KeyMapping string

const (
	// FlatRelative keys files by their path relative to the directory itself.
	FlatRelative KeyMapping = "flat"
	// BaseIncluded prepends the directory's own name to every key.
	BaseIncluded KeyMapping = "base"
)

// Validate checks that the KeyMapping is a known strategy.
func (k KeyMapping) Validate() error {
	switch k {
	case FlatRelative, BaseIncluded:
		return nil
	case "":
		return fmt.Errorf("key mapping cannot be empty")
	default:
		return fmt.Errorf("unknown key mapping %q (want %q or %q)", string(k), FlatRelative, BaseIncluded)
	}
}

// RunID represents a UUIDv7 identifier of a single archive run.
type RunID string

// NewRunID generates a fresh UUIDv7 run identifier.
func NewRunID() (RunID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run-id: %w", err)
	}
	return RunID(id.String()), nil
}

// Validate checks that the RunID is a valid UUIDv7.
func (r RunID) Validate() error {
	if r == "" {
		return fmt.Errorf("run-id cannot be empty")
	}
	id, err := uuid.Parse(string(r))
	if err != nil {
		return fmt.Errorf("run-id must be a valid UUID: %w", err)
	}
	if id.Version() != uuid.Version(7) {
		return fmt.Errorf("run-id must be a UUIDv7, got v%d", id.Version())
	}
	return nil
}

// String returns the run ID as a string.
func (r RunID) String() string {
	return string(r)
}
