package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/procoperr/janice/internal/iostream"
)

var (
	version     = "dev" // jan's version, set at compile time by ldflags
	commit      = ""    // jan's commit hash, set at compile time by ldflags
	headerStyle = color.New(color.FgWhite, color.Bold)
)

// BuildRootCmd builds and returns jan's root cobra command.
func BuildRootCmd() *cobra.Command {
	streams := iostream.OS()
	app := New(streams.Stdout, streams.Stderr)
	options := app.Options

	rootCmd := &cobra.Command{
		Use:           "jan <source> <dest>",
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "Crash-safe, content-addressed directory synchronization",
		Long: heredoc.Doc(`

		Crash-safe, content-addressed directory synchronization.

		jan scans source and dest, computes a content-hash diff between them,
		and brings dest in line with source: new files are copied, changed
		files are replaced, and files that were simply moved are detected by
		content, written to their new path, and removed from the old one.

		Every write goes through a temp file and an atomic rename, journaled
		so a crash mid-sync leaves dest in a valid intermediate state rather
		than a half-written one.
		`),
		Example: heredoc.Doc(`

		# Sync src into dst, copying and renaming but never deleting
		$ jan ./src ./dst

		# Preview what would happen without touching dst
		$ jan --dry-run ./src ./dst

		# Also delete files in dst that no longer exist in src
		$ jan --delete --yes ./src ./dst
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(args)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&options.DryRun, "dry-run", "n", false, "Compute and print the diff without changing dest.")
	flags.BoolVarP(&options.Delete, "delete", "d", false, "Delete files in dest that are no longer present in source.")
	flags.BoolVarP(&options.Yes, "yes", "y", false, "Skip the interactive confirmation prompt.")
	flags.BoolVarP(&options.Quiet, "quiet", "q", false, "Suppress routine progress output.")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "Print debug-level progress output.")
	flags.IntVarP(&options.Threads, "threads", "j", 0, "Worker pool size (default: number of CPUs).")
	flags.StringArrayVarP(&options.Excludes, "exclude", "e", nil, "Glob pattern to exclude from the scan, repeatable.")
	flags.BoolVar(&options.NoVerify, "no-verify", false, "Skip post-copy hash verification.")
	flags.BoolVar(&options.NoPreserve, "no-preserve-timestamps", false, "Do not copy source mtimes onto dest.")

	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{printf "%s %s\n%s %s\n"}}`, headerStyle.Sprint("Version:"), version, headerStyle.Sprint("Commit:"), commit))

	return rootCmd
}
