package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/crmarques/mgmtbridge/internal/cli/commandmeta"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

// statusLine ends mutating commands with an [OK] or [ERROR] line on stderr.
type statusLine struct {
	w     io.Writer
	color bool
}

func newStatusLine(w io.Writer, args []string) statusLine {
	return statusLine{w: w, color: colorEnabled(w, args)}
}

func (s statusLine) ok() {
	_, _ = fmt.Fprintf(s.w, "%s command executed successfully.\n", s.label("OK", "\x1b[1;32m"))
}

func (s statusLine) failed(err error) {
	description := "command execution failed"
	if err != nil {
		description += ": " + strings.TrimSpace(err.Error())
	}
	_, _ = fmt.Fprintf(s.w, "%s %s.\n", s.label("ERROR", "\x1b[1;31m"), description)
}

func (s statusLine) label(status string, ansi string) string {
	label := "[" + status + "]"
	if !s.color {
		return label
	}
	return ansi + label + "\x1b[0m"
}

// emitsStatus reports whether the executed command gets a status line.
// args are scanned directly because the flags are not parsed when cobra
// fails before running the command.
func emitsStatus(args []string, command *cobra.Command) bool {
	if boolFlag(args, "no-status", "n") || helpOrCompletion(args) || command == nil {
		return false
	}
	return commandmeta.EmitsExecutionStatusPath(command.CommandPath())
}

func colorEnabled(w io.Writer, args []string) bool {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" || boolFlag(args, "no-color", "") {
		return false
	}
	if !common.IsTerminalWriter(w) {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return term != "" && term != "dumb"
}

// boolFlag reads one boolean flag out of raw arguments, ignoring every
// other flag.
func boolFlag(args []string, name string, shorthand string) bool {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)

	value := flags.BoolP(name, shorthand, false, "")
	if err := flags.Parse(args); err == nil {
		return *value
	}

	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--"+name || (shorthand != "" && arg == "-"+shorthand) {
			return true
		}
		if raw, ok := strings.CutPrefix(arg, "--"+name+"="); ok {
			return strings.TrimSpace(raw) != "false"
		}
	}
	return false
}

func helpOrCompletion(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "help", "completion", "__complete", "__completeNoDesc":
		return true
	}
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
