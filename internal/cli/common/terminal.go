package common

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// IsInteractiveTerminal reports whether both stdin and stdout of command
// are attached to a terminal.
func IsInteractiveTerminal(command *cobra.Command) bool {
	return isTerminalReader(command.InOrStdin()) && IsTerminalWriter(command.OutOrStdout())
}

func isTerminalReader(reader io.Reader) bool {
	file, ok := reader.(*os.File)
	return ok && file != nil && term.IsTerminal(int(file.Fd()))
}

// IsTerminalWriter reports whether writer is a terminal.
func IsTerminalWriter(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	return ok && file != nil && term.IsTerminal(int(file.Fd()))
}
