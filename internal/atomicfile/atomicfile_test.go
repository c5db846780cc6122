package atomicfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/procoperr/janice/internal/atomicfile"
	"github.com/procoperr/janice/internal/contenthash"
)

func TestCommitRenamesIntoPlace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	temp := filepath.Join(dir, "staged.tmp")
	final := filepath.Join(dir, "final.txt")

	w, err := atomicfile.New(temp, final, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Commit(nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("ReadFile final: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Fatalf("temp file should be gone after commit, stat err = %v", err)
	}
}

func TestCloseWithoutCommitRemovesTempFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	temp := filepath.Join(dir, "staged.tmp")
	final := filepath.Join(dir, "final.txt")

	w, err := atomicfile.New(temp, final, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := w.Write([]byte("abandoned")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Fatalf("temp file should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(final); !os.IsNotExist(err) {
		t.Fatalf("final path should never have been created")
	}
}

func TestCommitVerifyMismatchAborts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	temp := filepath.Join(dir, "staged.tmp")
	final := filepath.Join(dir, "final.txt")

	w, err := atomicfile.New(temp, final, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("actual content")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	wrong := contenthash.HashBytes([]byte("different content"))
	err = w.Commit(&wrong)
	if err == nil {
		t.Fatal("expected a mismatch error")
	}

	if _, err := os.Stat(final); !os.IsNotExist(err) {
		t.Fatalf("final path should not exist after a failed verify")
	}
}

func TestCommitVerifySuccess(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	temp := filepath.Join(dir, "staged.tmp")
	final := filepath.Join(dir, "final.txt")

	content := []byte("verified payload")
	w, err := atomicfile.New(temp, final, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if _, err := w.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}

	expected := contenthash.HashBytes(content)
	if err := w.Commit(&expected); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("got %q want %q", got, content)
	}
}
