// Package journal implements jan's append-only pointer log: a record of
// in-flight copy/rename operations used only to find and delete orphaned
// temp files after a crash. It is not a redo log — it never re-issues
// work, since rename atomicity plus a pre-rename fsync already makes every
// successful file self-sufficient. The line format (newline-terminated,
// tab-separated fields) follows the same plain-text, line-oriented
// encoding: newline-terminated lines, tab-separated fields, generalized
// here to a four-field record per line.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/procoperr/janice/internal/jerr"
)

// Kind is the P(ending)/C(ommitted) tag of a journal record.
type Kind string

const (
	Pending   Kind = "P"
	Committed Kind = "C"
)

// Op names the two operations jan journals.
type Op string

const (
	Copy   Op = "COPY"
	Rename Op = "RENAME"
)

// Record is one line of the journal.
type Record struct {
	Kind      Kind
	Op        Op
	TempPath  string
	FinalPath string
}

// triple identifies a record for pending/committed matching, ignoring
// Kind.
type triple struct {
	op        Op
	tempPath  string
	finalPath string
}

func (r Record) triple() triple {
	return triple{op: r.Op, tempPath: r.TempPath, finalPath: r.FinalPath}
}

// Journal is an append-only, synchronously-flushed log file. All writers
// share one *os.File guarded by mu so individual record writes from
// concurrent apply workers never interleave.
type Journal struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Create truncates or creates the journal file at path.
func Create(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create journal %s: %v", jerr.JournalError, path, err)
	}
	return &Journal{path: path, file: f}, nil
}

// RecordPending appends a pending record and flushes it to disk.
func (j *Journal) RecordPending(op Op, temp, final string) error {
	return j.append(Record{Kind: Pending, Op: op, TempPath: temp, FinalPath: final})
}

// RecordCommitted appends a committed record and flushes it to disk.
func (j *Journal) RecordCommitted(op Op, temp, final string) error {
	return j.append(Record{Kind: Committed, Op: op, TempPath: temp, FinalPath: final})
}

func (j *Journal) append(r Record) error {
	line := fmt.Sprintf("%s\t%s\t%s\t%s\n", r.Kind, r.Op, r.TempPath, r.FinalPath)

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.WriteString(line); err != nil {
		return fmt.Errorf("%w: write record: %v", jerr.JournalError, err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("%w: flush record: %v", jerr.JournalError, err)
	}
	return nil
}

// Remove closes and deletes the journal file.
func (j *Journal) Remove() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		_ = j.file.Close()
		j.file = nil
	}
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove journal %s: %v", jerr.JournalError, j.path, err)
	}
	return nil
}

// parse reads and decodes every record in a journal file.
func parse(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open journal %s: %v", jerr.JournalError, path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: malformed journal line %q", jerr.JournalError, line)
		}
		records = append(records, Record{
			Kind:      Kind(parts[0]),
			Op:        Op(parts[1]),
			TempPath:  parts[2],
			FinalPath: parts[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read journal %s: %v", jerr.JournalError, path, err)
	}
	return records, nil
}

// Recover runs before any new apply. If journalPath does not exist, it
// sweeps every file in tempDir (if tempDir exists) and returns. Otherwise
// it partitions the journal's records into pending and committed sets by
// (op, temp, final) triple, deletes the temp file for every pending
// record whose triple never appears in the committed set, deletes the
// journal file, then sweeps tempDir regardless.
func Recover(journalPath, tempDir string) error {
	if _, err := os.Stat(journalPath); os.IsNotExist(err) {
		return sweep(tempDir)
	} else if err != nil {
		return fmt.Errorf("%w: stat journal %s: %v", jerr.JournalError, journalPath, err)
	}

	records, err := parse(journalPath)
	if err != nil {
		return err
	}

	committed := make(map[triple]struct{})
	for _, r := range records {
		if r.Kind == Committed {
			committed[r.triple()] = struct{}{}
		}
	}

	for _, r := range records {
		if r.Kind != Pending {
			continue
		}
		if _, ok := committed[r.triple()]; ok {
			continue
		}
		if err := os.Remove(r.TempPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove orphan temp file %s: %v", jerr.JournalError, r.TempPath, err)
		}
	}

	if err := os.Remove(journalPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove journal %s: %v", jerr.JournalError, journalPath, err)
	}

	return sweep(tempDir)
}

// sweep deletes every file directly inside tempDir, tolerating tempDir's
// absence. It is the last-resort net that catches temp files whose
// journal entry was itself lost (e.g. the journal file vanished but the
// temp dir did not).
func sweep(tempDir string) error {
	entries, err := os.ReadDir(tempDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read temp dir %s: %v", jerr.JournalError, tempDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(tempDir, e.Name())
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: sweep temp file %s: %v", jerr.JournalError, p, err)
		}
	}
	return nil
}
