// Package cli implements jan's command-level behavior: flag-driven setup,
// the scan/diff/apply pipeline, and the confirmation/summary output a
// user sees on a terminal. An App struct is built once in New, its
// Options populated by cobra flags before Run is called, with a zap
// logger and an msg.Printer threaded through.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FollowTheProcess/msg"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/juju/ansiterm/tabwriter"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/procoperr/janice/internal/apply"
	"github.com/procoperr/janice/internal/diff"
	"github.com/procoperr/janice/internal/jerr"
	"github.com/procoperr/janice/internal/logger"
	"github.com/procoperr/janice/internal/scan"
)

// Options holds every CLI flag's value, populated by cobra before Run is
// invoked. It mirrors the shape of cli/app/app.go's Options: a plain
// struct of zero-valued fields the flag parser fills in.
type Options struct {
	DryRun    bool     // -n/--dry-run
	Delete    bool     // -d/--delete
	Yes       bool     // -y/--yes
	Quiet     bool     // -q/--quiet
	Verbose   bool     // -v/--verbose
	Threads   int      // -j/--threads
	Excludes  []string // -e/--exclude, repeatable
	NoVerify  bool     // --no-verify, skips post-copy hash verification
	NoPreserve bool    // --no-preserve-timestamps
}

// App is jan's program state for one invocation.
type App struct {
	stdout  io.Writer
	stderr  io.Writer
	Options *Options
	logger  logger.Logger
	printer msg.Printer
}

// New creates an App writing to stdout/stderr.
func New(stdout, stderr io.Writer) *App {
	printer := msg.Default()
	printer.Stdout = stdout
	printer.Stderr = stderr
	return &App{
		stdout:  stdout,
		stderr:  stderr,
		Options: &Options{},
		printer: printer,
	}
}

// Run is jan's entry point: args must be exactly [source, dest].
func (a *App) Run(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: expected exactly two arguments (source, dest), got %d", jerr.InvalidPath, len(args))
	}
	source, dest := args[0], args[1]

	if err := a.setup(); err != nil {
		return err
	}
	defer a.logger.Sync() //nolint: errcheck

	if err := a.checkPath(source, "source"); err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("%w: create dest %s: %v", jerr.Io, dest, err)
	}

	a.printer.Textf("Scanning %s", source)
	sourceScan, err := scan.Directory(source, scan.Options{
		Excludes: a.Options.Excludes,
		Workers:  a.Options.Threads,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	a.printer.Textf("Scanning %s", dest)
	destScan, err := scan.Directory(dest, scan.Options{
		Excludes: a.Options.Excludes,
		Workers:  a.Options.Threads,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	result := diff.Scans(sourceScan, destScan)
	a.printSummary(result)

	if total(result) == 0 {
		a.printer.Good("Already in sync, nothing to do")
		return nil
	}

	if a.Options.DryRun {
		a.printer.Textf("Dry run: no changes made")
		return nil
	}

	if !a.Options.Yes {
		ok, err := a.confirm()
		if err != nil {
			return err
		}
		if !ok {
			a.printer.Textf("Aborted")
			return nil
		}
	}

	err = apply.Sync(source, dest, result, apply.Options{
		DeleteRemoved:      a.Options.Delete,
		PreserveTimestamps: !a.Options.NoPreserve,
		VerifyAfterCopy:    !a.Options.NoVerify,
		Workers:            a.Options.Threads,
		Logger:             a.logger,
	})
	if err != nil {
		return err
	}

	a.printer.Good("Sync complete")
	return nil
}

// setup builds the logger and auto-loads a sibling .env file, the same
// one-time-initialise responsibilities app.go's setup performs.
func (a *App) setup() error {
	built, err := logger.New(a.Options.Verbose, a.Options.Quiet)
	if err != nil {
		return err
	}
	a.logger = built
	if a.Options.Quiet {
		a.printer.Stdout = io.Discard
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("%w: %v", jerr.Io, err)
	}
	dotenvPath := filepath.Join(cwd, ".env")
	if _, statErr := os.Stat(dotenvPath); statErr == nil {
		if err := godotenv.Load(dotenvPath); err != nil {
			return fmt.Errorf("could not load .env file: %w", err)
		}
		a.logger.Debug("Loaded .env file at %s", dotenvPath)
	}
	return nil
}

// checkPath verifies path exists, offering a "did you mean" suggestion
// drawn from its parent directory's entries when it doesn't — the same
// fuzzy-match courtesy file/file.go extends to mistyped task names.
func (a *App) checkPath(path, label string) error {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s %s: %v", jerr.InvalidPath, label, path, err)
	}

	parent := filepath.Dir(path)
	entries, readErr := os.ReadDir(parent)
	if readErr != nil {
		return fmt.Errorf("%w: %s %s does not exist", jerr.InvalidPath, label, path)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	matches := fuzzy.RankFindNormalizedFold(filepath.Base(path), names)
	if len(matches) > 0 {
		return fmt.Errorf("%w: %s %s does not exist, did you mean %s?", jerr.InvalidPath, label, path, filepath.Join(parent, matches[0].Target))
	}
	return fmt.Errorf("%w: %s %s does not exist", jerr.InvalidPath, label, path)
}

// printSummary renders a tabwriter-aligned count of each diff category,
// the same presentation showTasks/showVariables (app.go) use for their
// own tables.
func (a *App) printSummary(result diff.Result) {
	writer := tabwriter.NewWriter(a.stdout, 0, 8, 1, '\t', tabwriter.AlignRight)
	titleStyle := color.New(color.FgHiWhite, color.Bold)

	fmt.Fprintln(a.stdout, "Planned changes:")
	titleStyle.Fprintln(writer, "Kind\tCount")
	fmt.Fprintf(writer, "%s\t%d\n", "added", len(result.Added))
	fmt.Fprintf(writer, "%s\t%d\n", "modified", len(result.Modified))
	fmt.Fprintf(writer, "%s\t%d\n", "renamed", len(result.Renamed))
	fmt.Fprintf(writer, "%s\t%d\n", "removed", len(result.Removed))
	_ = writer.Flush()
}

func total(result diff.Result) int {
	return len(result.Added) + len(result.Modified) + len(result.Renamed) + len(result.Removed)
}

// confirm prompts the user on stdout/stdin for a yes/no answer.
func (a *App) confirm() (bool, error) {
	fmt.Fprint(a.stdout, "Proceed? [y/N] ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("%w: read confirmation: %v", jerr.Io, err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
