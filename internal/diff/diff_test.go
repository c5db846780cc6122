package diff_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/procoperr/janice/internal/contenthash"
	"github.com/procoperr/janice/internal/diff"
	"github.com/procoperr/janice/internal/scan"
)

func meta(path, content string) scan.FileMeta {
	return scan.FileMeta{
		Path:    path,
		Size:    int64(len(content)),
		ModTime: time.Unix(0, 0),
		Hash:    contenthash.HashBytes([]byte(content)),
	}
}

func result(files ...scan.FileMeta) scan.Result {
	return scan.Result{Files: files, ScanTime: time.Unix(0, 0)}
}

func TestScansIdenticalTreesProduceEmptyDiff(t *testing.T) {
	t.Parallel()
	source := result(meta("a.txt", "one"), meta("b.txt", "two"))
	dest := result(meta("a.txt", "one"), meta("b.txt", "two"))

	got := diff.Scans(source, dest)
	if len(got.Added)+len(got.Removed)+len(got.Modified)+len(got.Renamed) != 0 {
		t.Fatalf("expected an empty diff, got %+v", got)
	}
}

func TestScansAddedFile(t *testing.T) {
	t.Parallel()
	source := result(meta("a.txt", "one"), meta("new.txt", "brand new"))
	dest := result(meta("a.txt", "one"))

	got := diff.Scans(source, dest)
	if len(got.Added) != 1 || got.Added[0].Path != "new.txt" {
		t.Fatalf("got added %+v, want [new.txt]", got.Added)
	}
	if len(got.Removed) != 0 || len(got.Modified) != 0 || len(got.Renamed) != 0 {
		t.Fatalf("unexpected extra classifications: %+v", got)
	}
}

func TestScansRemovedFile(t *testing.T) {
	t.Parallel()
	source := result(meta("a.txt", "one"))
	dest := result(meta("a.txt", "one"), meta("gone.txt", "bye"))

	got := diff.Scans(source, dest)
	if len(got.Removed) != 1 || got.Removed[0].Path != "gone.txt" {
		t.Fatalf("got removed %+v, want [gone.txt]", got.Removed)
	}
}

func TestScansModifiedSamePathDifferentContent(t *testing.T) {
	t.Parallel()
	source := result(meta("a.txt", "version two"))
	dest := result(meta("a.txt", "version one"))

	got := diff.Scans(source, dest)
	if len(got.Modified) != 1 || got.Modified[0].Path != "a.txt" {
		t.Fatalf("got modified %+v, want [a.txt]", got.Modified)
	}
	if len(got.Added) != 0 || len(got.Removed) != 0 || len(got.Renamed) != 0 {
		t.Fatalf("unexpected extra classifications: %+v", got)
	}
}

func TestScansSimpleRename(t *testing.T) {
	t.Parallel()
	source := result(meta("dir/new-name.txt", "unchanged content"))
	dest := result(meta("dir/old-name.txt", "unchanged content"))

	got := diff.Scans(source, dest)
	if len(got.Renamed) != 1 {
		t.Fatalf("got renamed %+v, want one pair", got.Renamed)
	}
	if got.Renamed[0].From.Path != "dir/old-name.txt" || got.Renamed[0].To.Path != "dir/new-name.txt" {
		t.Fatalf("got rename pair %+v, want old->new", got.Renamed[0])
	}
	if len(got.Added) != 0 || len(got.Removed) != 0 || len(got.Modified) != 0 {
		t.Fatalf("a rename must not also appear as added/removed: %+v", got)
	}
}

func TestScansAmbiguousRenameChoosesClosestPath(t *testing.T) {
	t.Parallel()
	// Two destination files share source's content; only one is a close
	// path match (same directory, same filename case-folded).
	source := result(meta("docs/readme.md", "shared body"))
	dest := result(
		meta("docs/README.md", "shared body"),
		meta("archive/very/deep/unrelated/path/file.bin", "shared body"),
	)

	got := diff.Scans(source, dest)
	if len(got.Renamed) != 1 {
		t.Fatalf("got renamed %+v, want one pair", got.Renamed)
	}
	if got.Renamed[0].From.Path != "docs/README.md" {
		t.Fatalf("got match %s, want docs/README.md (closest path)", got.Renamed[0].From.Path)
	}
	if len(got.Removed) != 1 || got.Removed[0].Path != "archive/very/deep/unrelated/path/file.bin" {
		t.Fatalf("the unmatched same-hash candidate should be reported removed: %+v", got.Removed)
	}
}

func TestScansDuplicateContentNewFileNotMistakenForRename(t *testing.T) {
	t.Parallel()
	// source has two files with identical content; dest only has one.
	// One source file keeps its path (no-op), the other is genuinely new
	// and must not be misreported as a rename once the matching dest path
	// is already claimed by the exact-path match.
	source := result(meta("a.txt", "dup"), meta("b.txt", "dup"))
	dest := result(meta("a.txt", "dup"))

	got := diff.Scans(source, dest)
	if len(got.Added) != 1 || got.Added[0].Path != "b.txt" {
		t.Fatalf("got added %+v, want [b.txt]", got.Added)
	}
	if len(got.Renamed) != 0 || len(got.Removed) != 0 || len(got.Modified) != 0 {
		t.Fatalf("unexpected extra classifications: %+v", got)
	}
}

func TestScansDiffIsTotal(t *testing.T) {
	t.Parallel()
	source := result(meta("keep.txt", "k"), meta("new.txt", "n"), meta("changed.txt", "v2"))
	dest := result(meta("keep.txt", "k"), meta("changed.txt", "v1"), meta("old.txt", "o"))

	got := diff.Scans(source, dest)

	accounted := make(map[string]bool)
	for _, f := range got.Added {
		accounted[f.Path] = true
	}
	for _, f := range got.Modified {
		accounted[f.Path] = true
	}
	for _, p := range got.Renamed {
		accounted[p.To.Path] = true
	}
	for _, f := range source.Files {
		if f.Path == "keep.txt" {
			continue // unchanged files are implicitly accounted for
		}
		if !accounted[f.Path] {
			t.Fatalf("source file %s missing from diff output", f.Path)
		}
	}

	destAccounted := make(map[string]bool)
	for _, f := range got.Removed {
		destAccounted[f.Path] = true
	}
	for _, p := range got.Renamed {
		destAccounted[p.From.Path] = true
	}
	for _, f := range dest.Files {
		if f.Path == "keep.txt" || f.Path == "changed.txt" {
			continue
		}
		if !destAccounted[f.Path] {
			t.Fatalf("dest file %s missing from diff output", f.Path)
		}
	}
}

func TestScansMatchesExpectedResultExactly(t *testing.T) {
	t.Parallel()
	source := result(meta("keep.txt", "k"), meta("new.txt", "n"))
	dest := result(meta("keep.txt", "k"), meta("old.txt", "o"))

	got := diff.Scans(source, dest)
	want := diff.Result{
		Added:   []scan.FileMeta{meta("new.txt", "n")},
		Removed: []scan.FileMeta{meta("old.txt", "o")},
	}

	// Slice order isn't part of the contract here, only set membership,
	// so cmpopts.SortSlices normalizes order before comparing.
	byPath := func(a, b scan.FileMeta) bool { return a.Path < b.Path }
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(byPath)); diff != "" {
		t.Fatalf("Scans() mismatch (-want +got):\n%s", diff)
	}
}
