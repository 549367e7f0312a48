package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/tools/imports"
)

// Writer materializes the output tree of one generation run. Names are
// slash-separated and relative to the project root.
type Writer interface {
	MkdirAll(dir string) error
	WriteFile(name string, data []byte) error
}

// WriterFactory opens a Writer rooted at a project path.
type WriterFactory func(root string) (Writer, error)

// DirWriter is the default WriterFactory: it writes below root on the local
// file system.
func DirWriter(root string) (Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("empty project path")
	}
	return &dirWriter{root: root}, nil
}

type dirWriter struct {
	root string
}

func (w *dirWriter) MkdirAll(dir string) error {
	return os.MkdirAll(filepath.Join(w.root, filepath.FromSlash(dir)), 0o755)
}

func (w *dirWriter) WriteFile(name string, data []byte) error {
	full := filepath.Join(w.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// WriterMetrics tracks generation output.
type WriterMetrics struct {
	FilesGenerated int
	TotalBytes     int64
}

// fileWriter formats and writes generated files of one run.
type fileWriter struct {
	w      Writer
	root   string
	format bool

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics WriterMetrics
}

func newFileWriter(w Writer, root string, format bool) *fileWriter {
	return &fileWriter{w: w, root: root, format: format}
}

// writeGo formats src with goimports and writes it to name. When formatting
// fails the unformatted source is written next to the target with an .error
// suffix for debugging.
func (fw *fileWriter) writeGo(artifact, name string, src []byte) error {
	out := src
	if fw.format {
		formatted, err := imports.Process(filepath.Join(fw.root, filepath.FromSlash(name)), src, &imports.Options{
			Comments:   true,
			TabIndent:  true,
			TabWidth:   8,
			FormatOnly: true,
		})
		if err != nil {
			// Errors intentionally ignored as we're already in error state
			debugPath := name + ".error"
			_ = fw.w.WriteFile(debugPath, src)
			return NewGenerationError("format", name, fmt.Sprintf("unformatted written to %s", debugPath), err)
		}
		out = formatted
	}
	return fw.write(artifact, name, out)
}

// write writes data to name as is.
func (fw *fileWriter) write(artifact, name string, data []byte) error {
	if err := fw.w.WriteFile(name, data); err != nil {
		return NewWriteError(artifact, name, err)
	}
	fw.mu.Lock()
	fw.metrics.FilesGenerated++
	fw.metrics.TotalBytes += int64(len(data))
	fw.mu.Unlock()
	return nil
}

func (fw *fileWriter) mkdir(dir string) error {
	if err := fw.w.MkdirAll(dir); err != nil {
		return NewWriteError("directory", dir, err)
	}
	return nil
}

// Metrics returns a snapshot of the writer metrics.
func (fw *fileWriter) Metrics() WriterMetrics {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.metrics
}
