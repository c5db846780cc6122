package scan_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/procoperr/janice/internal/scan"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDirectoryMissingRootFails(t *testing.T) {
	t.Parallel()
	_, err := scan.Directory(filepath.Join(t.TempDir(), "nope"), scan.Options{})
	if err == nil {
		t.Fatal("expected an error for a missing root")
	}
}

func TestDirectoryFindsAllFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "world")

	result, err := scan.Directory(root, scan.Options{})
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("got %d files, want 2: %+v", len(result.Files), result.Files)
	}
	if result.Errors != 0 {
		t.Fatalf("got %d errors, want 0", result.Errors)
	}

	byPath := make(map[string]scan.FileMeta)
	for _, f := range result.Files {
		byPath[filepath.ToSlash(f.Path)] = f
	}
	a, ok := byPath["a.txt"]
	if !ok {
		t.Fatalf("missing a.txt in %+v", byPath)
	}
	if a.Size != 5 {
		t.Fatalf("got size %d, want 5", a.Size)
	}
}

func TestDirectoryHashIsContentDependent(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "same1.txt"), "identical")
	writeFile(t, filepath.Join(root, "same2.txt"), "identical")
	writeFile(t, filepath.Join(root, "different.txt"), "not the same")

	result, err := scan.Directory(root, scan.Options{})
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}

	byPath := make(map[string]scan.FileMeta)
	for _, f := range result.Files {
		byPath[filepath.ToSlash(f.Path)] = f
	}

	if !byPath["same1.txt"].Hash.Equal(byPath["same2.txt"].Hash) {
		t.Fatal("identical content should produce identical hashes")
	}
	if byPath["same1.txt"].Hash.Equal(byPath["different.txt"].Hash) {
		t.Fatal("different content should not produce identical hashes")
	}
}

func TestDirectoryRespectsExcludes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), "k")
	writeFile(t, filepath.Join(root, "skip.log"), "s")

	result, err := scan.Directory(root, scan.Options{Excludes: []string{"*.log"}})
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(result.Files) != 1 || filepath.ToSlash(result.Files[0].Path) != "keep.txt" {
		t.Fatalf("got %+v, want only keep.txt", result.Files)
	}
}

func TestDirectoryEmptyRootSucceeds(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	result, err := scan.Directory(root, scan.Options{})
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(result.Files) != 0 {
		t.Fatalf("got %d files, want 0", len(result.Files))
	}
}
