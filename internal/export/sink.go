package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File is a decoded artifact ready for delivery.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Sink delivers files somewhere durable and reports where they went.
type Sink interface {
	Deliver(ctx context.Context, f File) (location string, err error)
}

// FileSink writes files into a local directory. Each file is written to a
// temporary name and renamed into place, so readers never observe a
// partially written artifact.
type FileSink struct {
	Dir string
}

// Deliver implements Sink.
func (s FileSink) Deliver(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+f.Name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", f.Name, err)
	}

	final := filepath.Join(dir, f.Name)
	if err := os.Rename(tmpName, final); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", f.Name, err)
	}
	return final, nil
}
