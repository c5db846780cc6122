// Package atomicfile implements jan's atomic replacement primitive: every
// file jan writes to a destination goes through a temp file that is
// flushed, fsynced, optionally verified, and only then renamed onto the
// final path, so an external observer never sees a partially written file.
//
// Go has no RAII destructors, so "delete the temp file unless committed"
// is expressed as an explicit Close method callers invoke with defer,
// the standard open-then-defer-cleanup shape for resources with
// conditional teardown.
package atomicfile

import (
	"fmt"
	"io"
	"os"

	"github.com/procoperr/janice/internal/contenthash"
	"github.com/procoperr/janice/internal/jerr"
)

// Writer realizes one atomic replace of finalPath via tempPath. tempPath
// and finalPath must lie on the same filesystem so the final rename is
// atomic; callers are expected to place tempPath inside a sibling
// .jan-tmp directory under the destination root.
type Writer struct {
	tempPath  string
	finalPath string
	file      *os.File
	verify    bool
	hasher    contenthash.Hasher
	committed bool
	closed    bool
}

// New opens tempPath for writing and returns a Writer bracketing it to
// finalPath. When verify is true, every byte passed to Write is also fed
// to an internal hasher so Commit can check it against an expected digest
// before the rename.
func New(tempPath, finalPath string, verify bool) (*Writer, error) {
	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file %s: %v", jerr.CopyError, tempPath, err)
	}
	w := &Writer{
		tempPath:  tempPath,
		finalPath: finalPath,
		file:      f,
		verify:    verify,
	}
	if verify {
		w.hasher = contenthash.New()
	}
	return w, nil
}

// Write appends to the temp file, updating the verification hasher if one
// is active.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: write %s: %v", jerr.CopyError, w.tempPath, err)
	}
	if w.verify && n > 0 {
		_, _ = w.hasher.Write(p[:n])
	}
	return n, nil
}

// ReadFrom streams all of r into the writer, a convenience for the copy
// phase's "open source, stream into an AtomicWriter" step.
func (w *Writer) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 256*1024)
	var total int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			written, writeErr := w.Write(buf[:n])
			total += int64(written)
			if writeErr != nil {
				return total, writeErr
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, fmt.Errorf("%w: read source: %v", jerr.CopyError, readErr)
		}
	}
}

// Commit flushes, fsyncs, optionally verifies against expectedHash, and
// renames tempPath onto finalPath. A verification mismatch returns an
// IntegrityError and leaves the temp file for Close to remove; the rename
// never happens in that case.
func (w *Writer) Commit(expectedHash *contenthash.ContentHash) error {
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("%w: fsync %s: %v", jerr.CopyError, w.tempPath, err)
	}

	if w.verify && expectedHash != nil {
		got := w.hasher.Finalize()
		if !got.Equal(*expectedHash) {
			return fmt.Errorf("%w: %s: expected %s, got %s", jerr.IntegrityError, w.finalPath, expectedHash, got)
		}
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", jerr.CopyError, w.tempPath, err)
	}
	w.closed = true

	if err := os.Rename(w.tempPath, w.finalPath); err != nil {
		return fmt.Errorf("%w: rename %s -> %s: %v", jerr.CopyError, w.tempPath, w.finalPath, err)
	}
	w.committed = true
	return nil
}

// Close removes the temp file unless Commit already succeeded; it is the
// explicit stand-in for the spec's destructor semantics and must be
// deferred immediately after New.
func (w *Writer) Close() error {
	if w.committed {
		return nil
	}
	if !w.closed {
		_ = w.file.Close()
		w.closed = true
	}
	if err := os.Remove(w.tempPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove temp file %s: %v", jerr.Io, w.tempPath, err)
	}
	return nil
}
