package commands

import (
	"os"

	"github.com/spf13/cobra"
)

// RunDefault is the action of the bare sqlpad command: SQL arguments run
// once, piped stdin runs once, and a terminal gets the interactive console.
func RunDefault(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && isTerminal(os.Stdin) {
		return runREPL(cmd)
	}
	return runRun(cmd, args, &RunOptions{})
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
