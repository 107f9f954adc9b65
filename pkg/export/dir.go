package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DirWriter writes named text files into a directory, creating it if
// missing. A failed write may leave a partial file behind.
type DirWriter struct {
	dir    string
	logger *slog.Logger
}

// NewDirWriter creates a DirWriter rooted at dir.
func NewDirWriter(dir string, logger *slog.Logger) *DirWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirWriter{dir: dir, logger: logger}
}

// Dir returns the target directory.
func (w *DirWriter) Dir() string {
	return w.dir
}

// WriteNamedTextFile writes content to dir/name.
func (w *DirWriter) WriteNamedTextFile(ctx context.Context, name, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(w.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	if _, err := file.WriteString(content); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return fmt.Errorf("writing %s: %w (close error: %w)", path, err, closeErr)
		}
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	w.logger.Debug("wrote file", "path", path, "bytes", len(content))
	return nil
}
