// Package walk enumerates a directory tree and yields regular-file paths,
// honoring ignore-file conventions. internal/scan depends only on the
// Walk function signature below, so a caller embedding jan as a library
// can swap in their own walker; jan's CLI always uses this one.
//
// Traversal honors .gitignore files scoped to the directories they live
// in (plus .git/info/exclude at the repository root) via
// crackcomm/go-gitignore. Hidden files and directories are always
// descended into and yielded. Caller-supplied exclude glob patterns are
// matched with bmatcuk/doublestar/v4.
package walk

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/crackcomm/go-gitignore"
)

// TempDirName and JournalName are always excluded from any scan of a
// destination root, independent of ignore files.
const (
	TempDirName = ".jan-tmp"
	JournalName = ".jan-journal"
)

// scope is one directory's worth of loaded ignore rules, rooted at dir.
type scope struct {
	dir     string
	ignores *gitignore.GitIgnore // nil if the directory had no ignore files
}

// Walk enumerates every regular file under root, yielding each as root
// joined with its relative path (host path separator), honoring .gitignore/.git/info/exclude and
// the caller-supplied exclude glob patterns (matched against the path
// relative to root). Results are sent on the returned channel; a single
// walk error (e.g. root unreadable) is sent on the error channel and both
// channels are closed once the walk finishes. Per-file errors encountered
// partway (a path vanishing between readdir and stat) are skipped
// silently here and never reach the scan engine, which counts only
// failures on the paths it is handed.
func Walk(root string, excludes []string) (<-chan string, <-chan error) {
	paths := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		scopes := []scope{loadScope(root, ".git")}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// A single vanished entry should not abort the whole
				// walk; surface it as a per-file skip.
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}

			if rel == "." {
				return nil
			}

			// Pop scopes that no longer contain this entry (WalkDir is
			// depth-first, so once we've left a subtree its scope is
			// never relevant again).
			for len(scopes) > 1 && !isWithin(scopes[len(scopes)-1].dir, path) {
				scopes = scopes[:len(scopes)-1]
			}

			base := filepath.Base(path)
			if d.IsDir() {
				if base == TempDirName {
					return filepath.SkipDir
				}
				if matchesAnyScope(scopes, path) {
					return filepath.SkipDir
				}
				scopes = append(scopes, loadScope(path, ""))
				return nil
			}

			if base == JournalName && filepath.Dir(path) == root {
				return nil
			}
			if matchesAnyScope(scopes, path) {
				return nil
			}
			if matchesExcludes(root, path, excludes) {
				return nil
			}

			paths <- path
			return nil
		})
		if walkErr != nil {
			errs <- walkErr
		}
	}()

	return paths, errs
}

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func loadScope(dir string, extra ...string) scope {
	candidates := []string{
		filepath.Join(dir, ".gitignore"),
		filepath.Join(dir, ".git", "info", "exclude"),
	}
	lines := append([]string{}, extra...)
	for _, c := range candidates {
		data, err := os.ReadFile(c)
		if err != nil {
			continue
		}
		lines = append(lines, splitLines(string(data))...)
	}
	if len(lines) == 0 {
		return scope{dir: dir}
	}
	gi, err := gitignore.CompileIgnoreLines(lines...)
	if err != nil {
		return scope{dir: dir}
	}
	return scope{dir: dir, ignores: gi}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func matchesAnyScope(scopes []scope, path string) bool {
	for i := len(scopes) - 1; i >= 0; i-- {
		s := scopes[i]
		if s.ignores == nil {
			continue
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			continue
		}
		if s.ignores.MatchesPath(rel) {
			return true
		}
	}
	return false
}

func matchesExcludes(root, path string, excludes []string) bool {
	if len(excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range excludes {
		ok, err := doublestar.Match(pattern, rel)
		if err == nil && ok {
			return true
		}
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
