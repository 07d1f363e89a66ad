package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Saver delivers a finished document.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, name string, data []byte) error

func (f SaverFunc) Save(ctx context.Context, name string, data []byte) error {
	return f(ctx, name, data)
}

// DirSaver writes documents into a directory.
type DirSaver struct {
	Dir string
}

// Path returns where a document named name is written.
func (s DirSaver) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

func (s DirSaver) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	// Write to a temp file first so a failed write never leaves a partial
	// document under the final name.
	path := s.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
