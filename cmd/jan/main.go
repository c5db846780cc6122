// Command jan synchronizes a destination directory to match a source
// directory, crash-safely.
package main

import (
	"os"

	"github.com/FollowTheProcess/msg"

	"github.com/procoperr/janice/internal/cli"
)

func main() {
	if err := run(); err != nil {
		msg.Error("%s", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := cli.BuildRootCmd()
	return rootCmd.Execute()
}
