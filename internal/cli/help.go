package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .LocalNonPersistentFlags.HasAvailableFlags}}

Flags:
{{.LocalNonPersistentFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if or .HasAvailableInheritedFlags .HasAvailablePersistentFlags}}

Global Flags:
{{if .HasAvailableInheritedFlags}}{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{if and .HasAvailableInheritedFlags .HasAvailablePersistentFlags}}
{{end}}{{if .HasAvailablePersistentFlags}}{{.PersistentFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}
{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

// installHelp renders help through the usage template with trailing blank
// lines collapsed to one newline.
func installHelp(root *cobra.Command) {
	root.SetUsageTemplate(usageTemplate)
	render := root.HelpFunc()
	root.SetHelpFunc(func(command *cobra.Command, args []string) {
		out, errOut := command.OutOrStdout(), command.ErrOrStderr()

		var buffer bytes.Buffer
		command.SetOut(&buffer)
		command.SetErr(&buffer)
		render(command, args)
		command.SetOut(out)
		command.SetErr(errOut)

		_, _ = fmt.Fprintln(out, strings.TrimRight(buffer.String(), "\n"))
	})
}

// printUsageOnMissingArguments walks the tree so every command prints its
// usage to stderr when it was invoked without the positional arguments it
// declares.
func printUsageOnMissingArguments(command *cobra.Command) {
	command.Args = withUsageOnMissingArguments(command.Args)
	command.PreRunE = withUsageOnMissingArguments(command.PreRunE)
	command.RunE = withUsageOnMissingArguments(command.RunE)
	for _, child := range command.Commands() {
		printUsageOnMissingArguments(child)
	}
}

func withUsageOnMissingArguments(handler func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	if handler == nil {
		return nil
	}
	return func(command *cobra.Command, args []string) error {
		err := handler(command, args)
		if err != nil && len(args) == 0 && declaresArguments(command) && isMissingArgument(err) {
			if usage := strings.TrimRight(command.UsageString(), "\n"); usage != "" {
				_, _ = fmt.Fprintln(command.ErrOrStderr(), usage)
			}
		}
		return err
	}
}

// isMissingArgument matches errors raised for absent positional arguments,
// either by cobra's arity validators or by commands through
// common.MissingArgument.
func isMissingArgument(err error) bool {
	if errors.Is(err, common.ErrMissingArgument) {
		return true
	}
	message := err.Error()
	return strings.Contains(message, "arg(s)") && strings.Contains(message, "received 0")
}

func declaresArguments(command *cobra.Command) bool {
	return strings.ContainsAny(command.Use, "<[")
}
