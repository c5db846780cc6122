// Package apply implements jan's apply engine: it takes a diff.Result and
// mutates dest so it matches source, through copy, rename, delete, and
// finalization phases. Every write goes through atomicfile.Writer
// bracketed by journal records, so a crash mid-apply never leaves a
// destination file partially written; the next run's journal.Recover call
// cleans up and the caller simply re-diffs and re-applies.
//
// Phase fan-out follows the same jobs-channel/worker-pool shape as
// internal/scan, joined here with golang.org/x/sync/errgroup so the first
// per-file error short-circuits the phase.
package apply

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/procoperr/janice/internal/atomicfile"
	"github.com/procoperr/janice/internal/contenthash"
	"github.com/procoperr/janice/internal/diff"
	"github.com/procoperr/janice/internal/jerr"
	"github.com/procoperr/janice/internal/journal"
	"github.com/procoperr/janice/internal/logger"
	"github.com/procoperr/janice/internal/scan"
	"github.com/procoperr/janice/internal/walk"
)

// Options configures a single Sync call.
type Options struct {
	DeleteRemoved      bool
	PreserveTimestamps bool
	VerifyAfterCopy    bool
	Workers            int // <=0 means runtime.NumCPU()
	Logger             logger.Logger
}

// tempCounter is the process-wide monotonic counter used to build unique
// temp-file names.
var tempCounter int64

// Sync mutates destRoot so it matches sourceRoot according to d, via the
// preamble, copy, rename, delete, and finalization phases. On any copy-
// or rename-phase error, the journal and temp directory are removed and
// the first error encountered is returned; files already committed
// before the error remain in place.
func Sync(sourceRoot, destRoot string, d diff.Result, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = logger.NoOp{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tempDir := filepath.Join(destRoot, walk.TempDirName)
	journalPath := filepath.Join(destRoot, walk.JournalName)

	if err := journal.Recover(journalPath, tempDir); err != nil {
		return err
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("%w: create temp dir %s: %v", jerr.Io, tempDir, err)
	}
	jrn, err := journal.Create(journalPath)
	if err != nil {
		return err
	}

	writtenDirs := newDirSet()

	copyJobs := make([]scan.FileMeta, 0, len(d.Added)+len(d.Modified))
	copyJobs = append(copyJobs, d.Added...)
	copyJobs = append(copyJobs, d.Modified...)

	if err := runPhase(workers, copyJobs, func(f scan.FileMeta) error {
		return copyFile(sourceRoot, destRoot, tempDir, jrn, writtenDirs, f, opts, log)
	}); err != nil {
		abandon(jrn, tempDir)
		return err
	}

	if err := runPhase(workers, d.Renamed, func(p diff.RenamePair) error {
		return renameFile(sourceRoot, destRoot, tempDir, jrn, writtenDirs, p, opts, log)
	}); err != nil {
		abandon(jrn, tempDir)
		return err
	}

	if opts.DeleteRemoved {
		if err := runPhase(workers, d.Removed, func(f scan.FileMeta) error {
			return deleteFile(destRoot, writtenDirs, f, log)
		}); err != nil {
			abandon(jrn, tempDir)
			return err
		}
	}

	for _, dir := range writtenDirs.items() {
		if err := fsyncDir(dir); err != nil {
			log.Debug("apply: fsync %s failed (non-fatal): %v", dir, err)
		}
	}

	if err := jrn.Remove(); err != nil {
		return err
	}
	if err := os.Remove(tempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove temp dir %s: %v", jerr.Io, tempDir, err)
	}
	return nil
}

// abandon discards the journal and temp directory after a fatal error,
// leaving every already-committed file in place so destRoot always stays
// a valid prefix of the intended end state.
func abandon(jrn *journal.Journal, tempDir string) {
	_ = jrn.Remove()
	_ = os.RemoveAll(tempDir)
}

// runPhase fans work out over a bounded worker pool and returns the
// first error any worker produced, using errgroup so the phase
// short-circuits as soon as one job fails.
func runPhase[T any](workers int, items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}
	if workers > len(items) {
		workers = len(items)
	}

	g, ctx := errgroup.WithContext(context.Background())
	jobs := make(chan T)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for item := range jobs {
				if err := fn(item); err != nil {
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	return g.Wait()
}

func copyFile(sourceRoot, destRoot, tempDir string, jrn *journal.Journal, writtenDirs *dirSet, f scan.FileMeta, opts Options, log logger.Logger) error {
	destPath := filepath.Join(destRoot, f.Path)
	if err := ensureParent(destPath, writtenDirs); err != nil {
		return err
	}

	tempPath := nextTempPath(tempDir)
	if err := jrn.RecordPending(journal.Copy, tempPath, destPath); err != nil {
		return err
	}

	if err := atomicCopy(sourceRoot, f, tempPath, destPath, opts.VerifyAfterCopy); err != nil {
		return err
	}

	if opts.PreserveTimestamps || f.Permissions != nil {
		applyAttributes(destPath, f, opts.PreserveTimestamps)
	}

	log.Debug("apply: copied %s", f.Path)
	return jrn.RecordCommitted(journal.Copy, tempPath, destPath)
}

func renameFile(sourceRoot, destRoot, tempDir string, jrn *journal.Journal, writtenDirs *dirSet, p diff.RenamePair, opts Options, log logger.Logger) error {
	destPath := filepath.Join(destRoot, p.To.Path)
	if err := ensureParent(destPath, writtenDirs); err != nil {
		return err
	}

	tempPath := nextTempPath(tempDir)
	if err := jrn.RecordPending(journal.Rename, tempPath, destPath); err != nil {
		return err
	}

	if err := atomicCopy(sourceRoot, p.To, tempPath, destPath, opts.VerifyAfterCopy); err != nil {
		return err
	}

	if opts.PreserveTimestamps || p.To.Permissions != nil {
		applyAttributes(destPath, p.To, opts.PreserveTimestamps)
	}

	if err := jrn.RecordCommitted(journal.Rename, tempPath, destPath); err != nil {
		return err
	}

	oldPath := filepath.Join(destRoot, p.From.Path)
	if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove old path %s: %v", jerr.Io, oldPath, err)
	}
	log.Debug("apply: renamed %s -> %s", p.From.Path, p.To.Path)
	return nil
}

func deleteFile(destRoot string, writtenDirs *dirSet, f scan.FileMeta, log logger.Logger) error {
	destPath := filepath.Join(destRoot, f.Path)
	writtenDirs.add(filepath.Dir(destPath))
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove %s: %v", jerr.Io, destPath, err)
	}
	log.Debug("apply: removed %s", f.Path)
	return nil
}

func atomicCopy(sourceRoot string, f scan.FileMeta, tempPath, destPath string, verify bool) error {
	srcPath := filepath.Join(sourceRoot, f.Path)
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", jerr.CopyError, srcPath, err)
	}
	defer src.Close()

	w, err := atomicfile.New(tempPath, destPath, verify)
	if err != nil {
		return err
	}
	defer w.Close()

	if _, err := w.ReadFrom(src); err != nil {
		return err
	}

	var expected *contenthash.ContentHash
	if verify {
		expected = &f.Hash
	}
	return w.Commit(expected)
}

func applyAttributes(destPath string, f scan.FileMeta, preserveTimestamps bool) {
	if preserveTimestamps && !f.ModTime.IsZero() {
		_ = os.Chtimes(destPath, time.Now(), f.ModTime)
	}
	if f.Permissions != nil {
		_ = os.Chmod(destPath, os.FileMode(*f.Permissions))
	}
}

func ensureParent(destPath string, writtenDirs *dirSet) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir %s: %v", jerr.Io, dir, err)
	}
	writtenDirs.add(dir)
	return nil
}

func nextTempPath(tempDir string) string {
	n := atomic.AddInt64(&tempCounter, 1)
	return filepath.Join(tempDir, fmt.Sprintf("%d-%d.tmp", os.Getpid(), n))
}

// fsyncDir opens dir and fsyncs it so the directory entries created by
// prior renames are durable; it is a no-op (returns nil) wherever
// directory fsync isn't meaningful, handled in fsync_unix.go/fsync_other.go.
func fsyncDir(dir string) error {
	return fsyncDirImpl(dir)
}

// dirSet is a mutex-protected set of directories touched during apply,
// used to fsync each one exactly once during finalization.
type dirSet struct {
	mu    sync.Mutex
	dirs  map[string]struct{}
	order []string
}

func newDirSet() *dirSet {
	return &dirSet{dirs: make(map[string]struct{})}
}

func (s *dirSet) add(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dirs[dir]; !ok {
		s.dirs[dir] = struct{}{}
		s.order = append(s.order, dir)
	}
}

func (s *dirSet) items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
