package config

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

// contextPrompter asks for what a context command was not given on the
// command line. Tests swap in a scripted one.
type contextPrompter interface {
	IsInteractive(command *cobra.Command) bool
	Input(command *cobra.Command, prompt string, required bool) (string, error)
	Select(command *cobra.Command, prompt string, options []string) (string, error)
	Confirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error)
}

type terminalPrompter struct{}

func (terminalPrompter) IsInteractive(command *cobra.Command) bool {
	return common.IsInteractiveTerminal(command)
}

func (terminalPrompter) Input(command *cobra.Command, prompt string, required bool) (string, error) {
	return common.PromptInput(command, prompt, required)
}

func (terminalPrompter) Select(command *cobra.Command, prompt string, options []string) (string, error) {
	return common.PromptSelect(command, prompt, options)
}

func (terminalPrompter) Confirm(command *cobra.Command, prompt string, defaultYes bool) (bool, error) {
	return common.PromptConfirm(command, prompt, defaultYes)
}

// CompleteContextNames offers catalog context names; it serves both the
// first positional argument of context commands and the global --context
// flag.
func CompleteContextNames(deps common.CommandDependencies) cobra.CompletionFunc {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		service, err := common.RequireContexts(deps)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		items, err := service.List(context.Background())
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var names []string
		for _, item := range items {
			if strings.HasPrefix(item.Name, toComplete) {
				names = append(names, item.Name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

func completeFirstArgWithContextNames(command *cobra.Command, deps common.CommandDependencies) {
	complete := CompleteContextNames(deps)
	command.ValidArgsFunction = func(command *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return complete(command, args, toComplete)
	}
}
