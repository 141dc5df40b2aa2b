package config

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	configdomain "github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/dispatch"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

func newPrintTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print-template",
		Short: "Print a context catalog YAML template with guidance comments",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			_, err := io.WriteString(command.OutOrStdout(), contextTemplateYAML)
			return err
		},
	}
}

func newResolveCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var overrides []string

	command := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve active context with overrides",
		Example: strings.Join([]string{
			"  mgmtbridge context resolve",
			"  mgmtbridge context resolve --context prod --output yaml",
			"  mgmtbridge context resolve --set management.server=backup",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: withCatalog(deps, func(command *cobra.Command, contexts configdomain.ContextService, _ []string) error {
			assignments, err := common.ParseAssignments(overrides)
			if err != nil {
				return err
			}
			selection := globalFlags.Selection()
			selection.Overrides = configdomain.MergeOverrides(selection.Overrides, assignments)

			resolved, err := contexts.ResolveContext(command.Context(), selection)
			if err != nil {
				return err
			}

			return common.WriteOutput(command, globalFlags, resolved, writeContextName)
		}),
	}

	command.Flags().StringArrayVarP(&overrides, "set", "e", nil, "override key=value (repeatable)")
	return command
}

type overrideKey struct {
	Key         string `json:"key" yaml:"key"`
	Environment string `json:"environment" yaml:"environment"`
}

func newOverridesCommand(globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "overrides",
		Short: "List override keys and their environment variables",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			keys := configdomain.OverrideKeys()
			sort.Strings(keys)

			items := make([]overrideKey, 0, len(keys)+1)
			items = append(items, overrideKey{Key: "name", Environment: configdomain.ContextEnvNameVar})
			for _, key := range keys {
				items = append(items, overrideKey{Key: key, Environment: configdomain.ContextEnvPrefix + configdomain.EnvSuffix(key)})
			}
			return common.WriteOutput(command, globalFlags, items, func(w io.Writer, value []overrideKey) error {
				for _, item := range value {
					if _, err := fmt.Fprintf(w, "%s\t%s\n", item.Key, item.Environment); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

type checkReport struct {
	Context    string `json:"context" yaml:"context"`
	Endpoint   string `json:"endpoint" yaml:"endpoint"`
	Version    string `json:"version" yaml:"version"`
	Product    string `json:"product,omitempty" yaml:"product,omitempty"`
	Release    string `json:"release,omitempty" yaml:"release,omitempty"`
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Telemetry  bool   `json:"telemetry" yaml:"telemetry"`
}

func newCheckCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Connect to the context endpoint and report its version",
		Example: strings.Join([]string{
			"  mgmtbridge context check",
			"  mgmtbridge --context prod context check --output json",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) (err error) {
			runtime, err := common.OpenRuntime(command, deps, globalFlags)
			if err != nil {
				return err
			}
			defer common.CloseRuntime(command, runtime, &err)

			version := runtime.Version
			if version == nil {
				read, err := dispatch.ReadVersion(command.Context(), runtime.Dispatcher)
				if err != nil {
					return err
				}
				version = &read
			}

			report := checkReport{
				Context:    runtime.Context.Name,
				Endpoint:   endpointOf(runtime.Context.Management),
				Version:    version.Management.String(),
				Product:    version.Product,
				Release:    version.Release,
				Constraint: runtime.Context.Management.MinVersion,
				Telemetry:  runtime.Telemetry.Enabled(),
			}
			return common.WriteOutput(command, globalFlags, report, func(w io.Writer, value checkReport) error {
				_, err := fmt.Fprintf(w, "%s: %s %s (management %s)\n", value.Context, value.Endpoint, value.Product, value.Version)
				return err
			})
		},
	}
}

func endpointOf(management configdomain.Management) string {
	switch {
	case management.HTTP != nil:
		return management.HTTP.BaseURL
	case management.Memory != nil:
		return "memory"
	default:
		return ""
	}
}
