package credential

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/credentials"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "credential",
		Short: "Manage the encrypted credentials of a context",
		Long: strings.Join([]string{
			"Manage the encrypted credential store configured under credentials in a context.",
			`Management auth settings refer to stored values with {{secret "key"}}.`,
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}

	command.AddCommand(
		newListCommand(deps, globalFlags),
		newSetCommand(deps, globalFlags),
		newDeleteCommand(deps, globalFlags),
		newPlaceholderCommand(globalFlags),
	)
	return command
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored credential keys",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			store, err := common.OpenCredentials(command, deps, globalFlags)
			if err != nil {
				return err
			}
			keys, err := store.List(command.Context())
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, keys, func(w io.Writer, items []string) error {
				for _, key := range items {
					if _, err := fmt.Fprintln(w, key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newSetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var valueFile string

	command := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a credential value",
		Example: strings.Join([]string{
			"  mgmtbridge credential set mgmt/admin",
			"  printf '%s' \"$TOKEN\" | mgmtbridge credential set mgmt/token --value-file -",
		}, "\n"),
		Args: cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			value, err := readValue(command, valueFile)
			if err != nil {
				return err
			}
			store, err := common.OpenCredentials(command, deps, globalFlags)
			if err != nil {
				return err
			}
			if err := store.Store(command.Context(), args[0], value); err != nil {
				return err
			}
			if !globalFlags.NoStatus {
				_, _ = fmt.Fprintf(command.ErrOrStderr(), "[INFO] stored credential: refer to it with %s\n", credentials.Placeholder(args[0]))
			}
			return nil
		},
	}

	command.Flags().StringVarP(&valueFile, "value-file", "f", "", "file holding the value (use '-' to read from stdin)")
	return command
}

func newDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var confirmDelete bool

	command := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			if !confirmDelete {
				if !common.IsInteractiveTerminal(command) {
					return common.ValidationError("flag --confirm-delete is required: confirm deletion", nil)
				}
				confirmed, err := common.PromptConfirm(command, fmt.Sprintf("Remove credential %s?", args[0]), false)
				if err != nil {
					return err
				}
				if !confirmed {
					return common.ValidationError("deletion not confirmed", nil)
				}
			}

			store, err := common.OpenCredentials(command, deps, globalFlags)
			if err != nil {
				return err
			}
			return store.Delete(command.Context(), args[0])
		},
	}

	command.Flags().BoolVarP(&confirmDelete, "confirm-delete", "y", false, "confirm deletion")
	return command
}

func newPlaceholderCommand(globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "placeholder <key>",
		Short: "Print the catalog reference to a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			return common.WriteText(command, globalFlags, credentials.Placeholder(args[0]))
		},
	}
}

// readValue takes the value from a file, stdin or a hidden prompt. A
// single trailing newline from a file or pipe is dropped.
func readValue(command *cobra.Command, valueFile string) (string, error) {
	if strings.TrimSpace(valueFile) == "" {
		return common.PromptSecret(command, "Value")
	}
	data, err := common.ReadPayload(command, valueFile)
	if err != nil {
		return "", err
	}
	value := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	if value == "" {
		return "", common.ValidationError("credential value must not be empty", nil)
	}
	return value, nil
}
