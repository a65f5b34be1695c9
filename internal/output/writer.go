// Package output writes encoded frames to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/ggbench"
)

// Writer stores frames as <Dir>/<surface>/image<frame><ext>.
// It is safe for concurrent use.
type Writer struct {
	dir    string
	format ggbench.ImageFormat

	mu   sync.Mutex
	made map[string]bool
}

// NewWriter returns a writer rooted at dir for files of the given format.
func NewWriter(dir string, format ggbench.ImageFormat) *Writer {
	return &Writer{dir: dir, format: format, made: make(map[string]bool)}
}

// Path returns the file path for a frame of the named surface.
func (w *Writer) Path(surface string, frame int) string {
	return filepath.Join(w.dir, surface, fmt.Sprintf("image%d%s", frame, w.format.Extension()))
}

// Write stores data for a frame and returns its path. Directories are
// created as needed.
func (w *Writer) Write(surface string, frame int, data []byte) (string, error) {
	if err := w.mkdir(filepath.Join(w.dir, surface)); err != nil {
		return "", err
	}
	path := w.Path(surface, frame)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("output: %w", err)
	}
	return path, nil
}

func (w *Writer) mkdir(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.made[dir] {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	w.made[dir] = true
	return nil
}
