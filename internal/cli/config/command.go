package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	configdomain "github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return newCommandWithPrompter(deps, globalFlags, terminalPrompter{})
}

func newCommandWithPrompter(
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	prompter contextPrompter,
) *cobra.Command {
	command := &cobra.Command{
		Use:   "context",
		Short: "Manage the contexts that name management endpoints",
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newPrintTemplateCommand(),
		newAddCommand(deps),
		newUpdateCommand(deps),
		newDeleteCommand(deps, prompter),
		newRenameCommand(deps, prompter),
		newListCommand(deps, globalFlags),
		newUseCommand(deps, prompter),
		newShowCommand(deps, globalFlags, prompter),
		newCurrentCommand(deps, globalFlags),
		newResolveCommand(deps, globalFlags),
		newOverridesCommand(globalFlags),
		newCheckCommand(deps, globalFlags),
	)
	return command
}

type catalogRunFunc func(command *cobra.Command, contexts configdomain.ContextService, args []string) error

// withCatalog resolves the context service before running fn.
func withCatalog(deps common.CommandDependencies, fn catalogRunFunc) func(*cobra.Command, []string) error {
	return func(command *cobra.Command, args []string) error {
		contexts, err := common.RequireContexts(deps)
		if err != nil {
			return err
		}
		return fn(command, contexts, args)
	}
}

func newAddCommand(deps common.CommandDependencies) *cobra.Command {
	var payload string
	var setCurrent bool

	command := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a context from a YAML or JSON document",
		Example: strings.Join([]string{
			"  mgmtbridge context add --payload local.yaml",
			"  mgmtbridge context add staging --payload - --set-current < staging.yaml",
		}, "\n"),
		Args: cobra.MaximumNArgs(1),
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, args []string) error {
			cfg, err := readContextPayload(command, payload)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Name = strings.TrimSpace(args[0])
			}
			if cfg.Name == "" {
				return common.ValidationError("context name is required", nil)
			}

			if err := contexts.Create(command.Context(), cfg); err != nil {
				return err
			}
			if !setCurrent {
				return nil
			}
			return contexts.SetCurrent(command.Context(), cfg.Name)
		}),
	}

	command.Flags().StringVarP(&payload, "payload", "f", "", "context file path (use '-' to read from stdin)")
	command.Flags().BoolVar(&setCurrent, "set-current", false, "make the added context current")
	return command
}

func newUpdateCommand(deps common.CommandDependencies) *cobra.Command {
	var payload string

	command := &cobra.Command{
		Use:   "update",
		Short: "Replace a context from a YAML or JSON document",
		Args:  cobra.NoArgs,
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, _ []string) error {
			cfg, err := readContextPayload(command, payload)
			if err != nil {
				return err
			}
			return contexts.Update(command.Context(), cfg)
		}),
	}

	command.Flags().StringVarP(&payload, "payload", "f", "", "context file path (use '-' to read from stdin)")
	return command
}

func readContextPayload(command *cobra.Command, payload string) (configdomain.Context, error) {
	if payload == "" {
		return configdomain.Context{}, common.ValidationError("flag --payload is required: context input is required", nil)
	}
	return decodeContextStrict(command, payload)
}

func newDeleteCommand(deps common.CommandDependencies, prompter contextPrompter) *cobra.Command {
	command := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a context (interactive when name is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, args []string) error {
			if len(args) > 0 {
				return contexts.Delete(command.Context(), args[0])
			}

			name, err := selectContextForAction(command, contexts, prompter, "delete")
			if err != nil {
				return err
			}
			confirmed, err := prompter.Confirm(command, fmt.Sprintf("Delete context %q?", name), false)
			if err != nil {
				return err
			}
			if !confirmed {
				_, err := fmt.Fprintln(command.OutOrStdout(), "delete canceled")
				return err
			}
			return contexts.Delete(command.Context(), name)
		}),
	}
	completeFirstArgWithContextNames(command, deps)
	return command
}

func newRenameCommand(deps common.CommandDependencies, prompter contextPrompter) *cobra.Command {
	command := &cobra.Command{
		Use:   "rename [from] [to]",
		Short: "Rename a context (interactive when args are omitted)",
		Args:  cobra.MaximumNArgs(2),
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, args []string) error {
			if len(args) == 2 {
				return contexts.Rename(command.Context(), args[0], args[1])
			}

			var fromName string
			if len(args) == 1 {
				if !prompter.IsInteractive(command) {
					return common.ValidationError("new context name is required", nil)
				}
				fromName = args[0]
			} else {
				selected, err := selectContextForAction(command, contexts, prompter, "rename")
				if err != nil {
					return err
				}
				fromName = selected
			}

			toName, err := prompter.Input(command, "New context name: ", true)
			if err != nil {
				return err
			}
			return contexts.Rename(command.Context(), fromName, toName)
		}),
	}
	completeFirstArgWithContextNames(command, deps)
	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contexts",
		Args:  cobra.NoArgs,
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, _ []string) error {
			items, err := contexts.List(command.Context())
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, items, func(w io.Writer, value []configdomain.Context) error {
				for _, item := range value {
					if _, err := fmt.Fprintln(w, item.Name); err != nil {
						return err
					}
				}
				return nil
			})
		}),
	}
}

func newUseCommand(deps common.CommandDependencies, prompter contextPrompter) *cobra.Command {
	command := &cobra.Command{
		Use:   "use [name]",
		Short: "Set current context (interactive when name is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, args []string) error {
			if len(args) > 0 {
				return contexts.SetCurrent(command.Context(), args[0])
			}
			name, err := selectContextForAction(command, contexts, prompter, "use")
			if err != nil {
				return err
			}
			return contexts.SetCurrent(command.Context(), name)
		}),
	}
	completeFirstArgWithContextNames(command, deps)
	return command
}

func newShowCommand(
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	prompter contextPrompter,
) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show a context from --context or interactive selection",
		Args:  cobra.NoArgs,
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, _ []string) error {
			name := strings.TrimSpace(globalFlags.Context)
			if name == "" {
				selected, err := selectContextForAction(command, contexts, prompter, "show --context")
				if err != nil {
					return err
				}
				name = selected
			}

			shown, err := contexts.ResolveContext(command.Context(), configdomain.ContextSelection{Name: name})
			if err != nil {
				return err
			}
			// Always YAML: the context has no useful text rendering.
			return common.WriteOutput(command, &common.GlobalFlags{Output: common.OutputYAML, JQ: globalFlags.JQ}, shown, nil)
		}),
	}
}

func newCurrentCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Get current context",
		Args:  cobra.NoArgs,
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, _ []string) error {
			current, err := contexts.GetCurrent(command.Context())
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, current, writeContextName)
		}),
	}
}

func writeContextName(w io.Writer, value configdomain.Context) error {
	_, err := fmt.Fprintln(w, value.Name)
	return err
}

// selectContextForAction prompts for a catalog context. Without a terminal
// the name becomes a missing argument.
func selectContextForAction(
	command *cobra.Command,
	contexts configdomain.ContextService,
	prompter contextPrompter,
	actionLabel string,
) (string, error) {
	items, err := contexts.List(command.Context())
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", common.ValidationError("no contexts available", nil)
	}
	if !prompter.IsInteractive(command) {
		return "", common.MissingArgument(fmt.Sprintf("context name is required: mgmtbridge context %s <name>", actionLabel))
	}

	options := make([]string, len(items))
	for idx, item := range items {
		options[idx] = item.Name
	}
	return prompter.Select(command, "Choose context", options)
}
