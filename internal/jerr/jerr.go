// Package jerr defines jan's error kinds as sentinel values usable with
// errors.Is, matching the error taxonomy a sync engine needs rather than
// the happenstance of any one call site.
package jerr

import "errors"

// Kind values are wrapped around the underlying cause with fmt.Errorf's
// %w verb, so callers can still errors.Is(err, jerr.CopyError) etc. after
// the error has been annotated with file-specific detail.
var (
	// InvalidPath covers a missing root, a path escaping its root, or a
	// malformed exclude pattern.
	InvalidPath = errors.New("invalid path")

	// DirectoryRead covers enumeration failures during scan.
	DirectoryRead = errors.New("directory read failed")

	// HashError covers a hashing failure for a single file.
	HashError = errors.New("hash failed")

	// CopyError covers any I/O failure during copy or rename.
	CopyError = errors.New("copy failed")

	// IntegrityError is raised when verify_after_copy detects a hash
	// mismatch between the source digest and the freshly-copied bytes.
	IntegrityError = errors.New("integrity check failed")

	// JournalError covers a journal write failure, fatal for the
	// enclosing apply.
	JournalError = errors.New("journal error")

	// Io is the catch-all for everything else.
	Io = errors.New("i/o error")
)
