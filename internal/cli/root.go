package cli

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/internal/cli/common"
	contextcmd "github.com/crmarques/mgmtbridge/internal/cli/config"
	consolecmd "github.com/crmarques/mgmtbridge/internal/cli/console"
	"github.com/crmarques/mgmtbridge/internal/cli/credential"
	entitycmd "github.com/crmarques/mgmtbridge/internal/cli/entity"
	"github.com/crmarques/mgmtbridge/internal/cli/version"
)

func NewRootCommand(deps Dependencies) *cobra.Command {
	commandDeps := deps.commandDependencies()
	var globalFlags common.GlobalFlags

	root := &cobra.Command{
		Use:   "mgmtbridge",
		Short: "Manage server configuration through typed entities",
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
		Args: cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			if err := common.ValidateOutputFormat(globalFlags.Output); err != nil {
				return err
			}
			if err := common.ValidateOutputFormatForCommandPath(command.CommandPath(), globalFlags.Output); err != nil {
				return err
			}

			commandContext := command.Context()
			if commandContext == nil {
				commandContext = context.Background()
			}
			commandContext = common.WithLogger(commandContext, command.ErrOrStderr(), &globalFlags)
			command.SetContext(commandContext)

			logr.FromContextOrDiscard(commandContext).V(2).Info(
				"invocation",
				"context", globalFlags.Context,
				"server", globalFlags.Server,
				"output", globalFlags.Output,
				"no_status", globalFlags.NoStatus,
				"command", command.CommandPath(),
			)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	installHelp(root)
	common.BindGlobalFlags(root, &globalFlags)
	root.PersistentFlags().BoolP("help", "h", false, "help for command")

	root.AddGroup(
		&cobra.Group{ID: "basic", Title: "Basic Commands:"},
		&cobra.Group{ID: "other", Title: "Other Commands:"},
	)
	root.SetCompletionCommandGroupID("other")

	groups := []struct {
		id       string
		commands []*cobra.Command
	}{
		{id: "basic", commands: []*cobra.Command{
			contextcmd.NewCommand(commandDeps, &globalFlags),
			entitycmd.NewCommand(commandDeps, &globalFlags),
			consolecmd.NewCommand(commandDeps, &globalFlags),
			credential.NewCommand(commandDeps, &globalFlags),
		}},
		{id: "other", commands: []*cobra.Command{
			version.NewCommand(&globalFlags),
		}},
	}
	for _, group := range groups {
		for _, command := range group.commands {
			command.GroupID = group.id
			root.AddCommand(command)
		}
	}

	_ = root.RegisterFlagCompletionFunc("context", contextcmd.CompleteContextNames(commandDeps))
	printUsageOnMissingArguments(root)

	return root
}
