package walk_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/procoperr/janice/internal/walk"
)

func drain(t *testing.T, root string, excludes []string) []string {
	t.Helper()
	paths, errs := walk.Walk(root, excludes)
	var got []string
	for p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("Rel: %v", err)
		}
		got = append(got, filepath.ToSlash(rel))
	}
	for err := range errs {
		t.Fatalf("walk error: %v", err)
	}
	sort.Strings(got)
	return got
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestWalkFindsRegularFilesIncludingHidden(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "b")
	writeFile(t, filepath.Join(root, ".hidden"), "h")

	got := drain(t, root, nil)
	want := []string{".hidden", "a.txt", "sub/b.txt"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestWalkExcludesJanDirAndJournal(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, walk.TempDirName, "1-1.tmp"), "stale")
	writeFile(t, filepath.Join(root, walk.JournalName), "P\tCOPY\tx\ty\n")

	got := drain(t, root, nil)
	want := []string{"a.txt"}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWalkHonorsGitignore(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), "k")
	writeFile(t, filepath.Join(root, "build", "out.bin"), "o")
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\n")

	got := drain(t, root, nil)
	want := []string{".gitignore", "keep.txt"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWalkAppliesExcludeGlobPatterns(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.log"), "a")
	writeFile(t, filepath.Join(root, "b.txt"), "b")

	got := drain(t, root, []string{"*.log"})
	want := []string{"b.txt"}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("got %v, want %v", got, want)
	}
}
