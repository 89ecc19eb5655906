package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Slot is a single named durable location holding the serialized report
// collection. Every write replaces the previous content wholesale.
type Slot interface {
	// Read returns the slot content, or nil when the slot has never been written.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the slot content.
	Write(ctx context.Context, data []byte) error
}

// FileSlot stores the collection in one JSON file.
type FileSlot struct {
	path string
}

// NewFileSlot creates a slot backed by path. Parent directories are created
// on first write.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

func (s *FileSlot) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	return data, nil
}

// Write goes through a temp file and a rename so a crash mid-write never
// leaves a truncated collection behind.
func (s *FileSlot) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".reports-*.json")
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp report file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace report file: %w", err)
	}
	return nil
}
