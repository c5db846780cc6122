// Package scan implements jan's scan engine: enumeration of a directory
// tree (a single walker goroutine) with a content fingerprint attached,
// in parallel, to every regular file found. A jobs channel feeds a bounded pool of workers that stat
// and hash each path the walker yields, with a WaitGroup closing the
// results channel once every worker has drained the jobs channel.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/procoperr/janice/internal/contenthash"
	"github.com/procoperr/janice/internal/jerr"
	"github.com/procoperr/janice/internal/logger"
	"github.com/procoperr/janice/internal/walk"
)

// FileMeta records everything the diff and apply engines need to know
// about one regular file as of scan time.
type FileMeta struct {
	Path        string // relative to the scan root, host path separator
	Size        int64
	ModTime     time.Time
	Hash        contenthash.ContentHash
	Permissions *uint32 // nil on non-POSIX hosts
}

// Equal reports whether two FileMeta values have identical fields.
func (f FileMeta) Equal(other FileMeta) bool {
	if f.Path != other.Path || f.Size != other.Size || !f.ModTime.Equal(other.ModTime) || !f.Hash.Equal(other.Hash) {
		return false
	}
	if (f.Permissions == nil) != (other.Permissions == nil) {
		return false
	}
	if f.Permissions != nil && *f.Permissions != *other.Permissions {
		return false
	}
	return true
}

// Result is the outcome of scanning one directory tree.
type Result struct {
	Root     string
	Files    []FileMeta
	ScanTime time.Time
	// Errors counts per-file failures (vanished mid-scan, permission
	// denied, read error) that were logged and suppressed so the scan
	// could still return a best-effort result, giving callers a
	// structured way to tell a clean scan from a partial one.
	Errors int
}

// Options configures a single Directory call.
type Options struct {
	Excludes []string
	Workers  int // <=0 means runtime.NumCPU()
	Logger   logger.Logger
}

type statResult struct {
	meta FileMeta
	err  error
}

// Directory walks root with walk.Walk, then stats and hashes every
// regular file found, in parallel, and returns a Result. It fails if root
// does not exist or is not a directory, or if the walk itself returns an
// error; individual file failures are logged and counted, never fatal to
// the scan as a whole.
func Directory(root string, opts Options) (Result, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s", jerr.InvalidPath, root)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NoOp{}
	}

	paths, walkErrs := walk.Walk(root, opts.Excludes)

	// Buffer all enumerated paths before the hashing phase begins, so
	// enumeration fully completes (and any walk error surfaces) before
	// any file is opened for hashing. The buffer is only ever appended to
	// from this one goroutine draining the walk's channel, so no extra
	// locking is needed here; Go's channel semantics already serialize
	// the sends inside walk.Walk.
	var allPaths []string
	for p := range paths {
		allPaths = append(allPaths, p)
	}
	if err := <-walkErrs; err != nil {
		return Result{}, fmt.Errorf("%w: %v", jerr.DirectoryRead, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(allPaths) {
		workers = len(allPaths)
	}
	if workers == 0 {
		return Result{Root: root, ScanTime: time.Now()}, nil
	}

	jobs := make(chan string)
	results := make(chan statResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				meta, err := statAndHash(root, p)
				results <- statResult{meta: meta, err: err}
			}
		}()
	}

	go func() {
		for _, p := range allPaths {
			jobs <- p
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var files []FileMeta
	errCount := 0
	for r := range results {
		if r.err != nil {
			log.Debug("scan: skipping file: %v", r.err)
			errCount++
			continue
		}
		files = append(files, r.meta)
	}

	// Hashing completion order is non-deterministic; sort by path so a
	// ScanResult's file ordering is reproducible for callers that need
	// one (and so the diff engine's rename tie-break, pinned to
	// source-scan append order, is itself deterministic — see
	// internal/diff).
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return Result{
		Root:     root,
		Files:    files,
		ScanTime: time.Now(),
		Errors:   errCount,
	}, nil
}

func statAndHash(root, path string) (FileMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileMeta{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return FileMeta{}, fmt.Errorf("%s is not a regular file", path)
	}

	hash, err := contenthash.HashFile(path)
	if err != nil {
		return FileMeta{}, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return FileMeta{}, fmt.Errorf("%w: %s not under %s", jerr.InvalidPath, path, root)
	}

	return FileMeta{
		Path:        rel,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Hash:        hash,
		Permissions: posixPermissions(info),
	}, nil
}
