package entity

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/crmarques/mgmtbridge/adapter"
	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/core"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/model"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "entity",
		Short: "Read and change typed management entities",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}

	command.AddCommand(
		newTypesCommand(globalFlags),
		newListCommand(deps, globalFlags),
		newGetCommand(deps, globalFlags),
		newCreateCommand(deps, globalFlags),
		newSaveCommand(deps, globalFlags),
		newDeleteCommand(deps, globalFlags),
	)
	return command
}

type typeInfo struct {
	Type       string   `json:"type" yaml:"type"`
	Summary    string   `json:"summary" yaml:"summary"`
	Address    string   `json:"address" yaml:"address"`
	Parameters []string `json:"parameters" yaml:"parameters"`
	Fields     []string `json:"fields" yaml:"fields"`
}

func newTypesCommand(globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List entity types with their address and fields",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			registry, err := model.NewRegistry(nil)
			if err != nil {
				return err
			}

			infos := make([]typeInfo, 0, len(kinds))
			for _, entityType := range kindNames() {
				current, _ := lookupKind(entityType)
				descriptor, err := registry.Lookup(entityType)
				if err != nil {
					return err
				}
				info := typeInfo{
					Type:       entityType,
					Summary:    current.Summary(),
					Address:    descriptor.AddressTemplate().String(),
					Parameters: descriptor.AddressTemplate().PlaceholderNames(),
				}
				for _, binding := range descriptor.PropertyBindings() {
					info.Fields = append(info.Fields, binding.FieldName+":"+binding.Type.String())
				}
				infos = append(infos, info)
			}

			return common.WriteOutput(command, globalFlags, infos, renderTypes)
		},
	}
}

func renderTypes(w io.Writer, infos []typeInfo) error {
	writer := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(writer, "TYPE\tPARAMETERS\tSUMMARY")
	for _, info := range infos {
		if _, err := fmt.Fprintf(writer, "%s\t%s\t%s\n", info.Type, strings.Join(info.Parameters, ","), info.Summary); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <type> [scope...]",
		Short: "List the entities of a type",
		Example: strings.Join([]string{
			"  mgmtbridge entity list queue",
			"  mgmtbridge entity list security-pattern other-server",
		}, "\n"),
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeTypes,
		RunE: func(command *cobra.Command, args []string) (err error) {
			current, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			runtime, err := common.OpenRuntime(command, deps, globalFlags)
			if err != nil {
				return err
			}
			defer common.CloseRuntime(command, runtime, &err)

			descriptor, own, err := describe(runtime, current)
			if err != nil {
				return err
			}
			scope, err := resolveParams(descriptor, args[1:], descriptor.AddressTemplate().Placeholders()-own, serverOf(runtime))
			if err != nil {
				return err
			}

			result, err := current.List(command.Context(), runtime.Session, scope)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, result.Items, func(w io.Writer, _ any) error {
				for _, identity := range result.Identities {
					if _, err := fmt.Fprintln(w, strings.Join(identity, "/")); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newGetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <name...>",
		Short: "Read one entity",
		Example: strings.Join([]string{
			"  mgmtbridge entity get queue orders",
			"  mgmtbridge entity get security-pattern '#' guest --output json",
		}, "\n"),
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeTypes,
		RunE: func(command *cobra.Command, args []string) (err error) {
			current, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			runtime, err := common.OpenRuntime(command, deps, globalFlags)
			if err != nil {
				return err
			}
			defer common.CloseRuntime(command, runtime, &err)

			descriptor, _, err := describe(runtime, current)
			if err != nil {
				return err
			}
			params, err := resolveParams(descriptor, args[1:], descriptor.AddressTemplate().Placeholders(), serverOf(runtime))
			if err != nil {
				return err
			}

			value, err := current.Get(command.Context(), runtime.Session, params)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags, value, renderYAMLText)
		},
	}
}

func newCreateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var fieldFlags common.FieldFlags
	var interactive bool

	command := &cobra.Command{
		Use:   "create <type> <name...>",
		Short: "Add an entity",
		Example: strings.Join([]string{
			"  mgmtbridge entity create queue orders --set jndiName=/queue/orders --set durable=true",
			"  mgmtbridge entity create security-pattern '#' guest --set send=true --set consume=true",
			"  mgmtbridge entity create topic news --payload topic.yaml --format yaml",
		}, "\n"),
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeTypes,
		RunE: func(command *cobra.Command, args []string) (err error) {
			current, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			fields, err := common.ReadFields(command, fieldFlags)
			if err != nil {
				return err
			}

			runtime, err := common.OpenRuntime(command, deps, globalFlags)
			if err != nil {
				return err
			}
			defer common.CloseRuntime(command, runtime, &err)

			descriptor, own, err := describe(runtime, current)
			if err != nil {
				return err
			}
			params, err := resolveParams(descriptor, args[1:], descriptor.AddressTemplate().Placeholders(), serverOf(runtime))
			if err != nil {
				return err
			}
			if interactive {
				if err := common.PromptFields(command, "New "+current.Type(), descriptor.PropertyBindings(), fields); err != nil {
					return err
				}
			}
			if err := checkFields(descriptor, fields); err != nil {
				return err
			}

			split := len(params) - own
			result, err := current.Create(command.Context(), runtime.Session, params[:split], params[split:], fields)
			if err != nil {
				return err
			}
			return common.OutcomeError(result)
		},
	}

	common.BindFieldFlags(command, &fieldFlags)
	command.Flags().BoolVar(&interactive, "interactive", false, "prompt for fields not given with --set or --payload")
	return command
}

func newSaveCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var fieldFlags common.FieldFlags

	command := &cobra.Command{
		Use:   "save <type> <name...>",
		Short: "Write changed fields of an entity",
		Long:  "Write the given fields of an entity. An empty value (--set field=) undefines the attribute.",
		Example: strings.Join([]string{
			"  mgmtbridge entity save queue orders --set selector=\"priority > 4\"",
			"  mgmtbridge entity save messaging-provider --set securityEnabled=false",
		}, "\n"),
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeTypes,
		RunE: func(command *cobra.Command, args []string) (err error) {
			current, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			fields, err := common.ReadFields(command, fieldFlags)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				return common.ValidationError("field values are required: use --set or --payload", nil)
			}

			runtime, err := common.OpenRuntime(command, deps, globalFlags)
			if err != nil {
				return err
			}
			defer common.CloseRuntime(command, runtime, &err)

			descriptor, own, err := describe(runtime, current)
			if err != nil {
				return err
			}
			if err := checkFields(descriptor, fields); err != nil {
				return err
			}
			params, err := resolveParams(descriptor, args[1:], descriptor.AddressTemplate().Placeholders(), serverOf(runtime))
			if err != nil {
				return err
			}

			split := len(params) - own
			result, err := runtime.Session.Save(command.Context(), current.Type(), params[:split], params[split:], adapter.ChangeSet(fields))
			if err != nil {
				return err
			}
			return common.OutcomeError(result)
		},
	}

	common.BindFieldFlags(command, &fieldFlags)
	return command
}

func newDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var confirmDelete bool

	command := &cobra.Command{
		Use:   "delete <type> <name...>",
		Short: "Remove an entity",
		Example: strings.Join([]string{
			"  mgmtbridge entity delete queue orders --confirm-delete",
		}, "\n"),
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeTypes,
		RunE: func(command *cobra.Command, args []string) (err error) {
			current, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			if !confirmDelete {
				if !common.IsInteractiveTerminal(command) {
					return common.ValidationError("flag --confirm-delete is required: confirm deletion", nil)
				}
				confirmed, err := common.PromptConfirm(command, fmt.Sprintf("Remove %s %s?", current.Type(), strings.Join(args[1:], "/")), false)
				if err != nil {
					return err
				}
				if !confirmed {
					return common.ValidationError("deletion not confirmed", nil)
				}
			}

			runtime, err := common.OpenRuntime(command, deps, globalFlags)
			if err != nil {
				return err
			}
			defer common.CloseRuntime(command, runtime, &err)

			descriptor, own, err := describe(runtime, current)
			if err != nil {
				return err
			}
			params, err := resolveParams(descriptor, args[1:], descriptor.AddressTemplate().Placeholders(), serverOf(runtime))
			if err != nil {
				return err
			}

			split := len(params) - own
			result, err := runtime.Session.Delete(command.Context(), current.Type(), params[:split], params[split:])
			if err != nil {
				return err
			}
			return common.OutcomeError(result)
		},
	}

	command.Flags().BoolVarP(&confirmDelete, "confirm-delete", "y", false, "confirm deletion")
	return command
}

func describe(runtime *core.Runtime, current kind) (metadata.Descriptor, int, error) {
	descriptor, err := runtime.Registry.Lookup(current.Type())
	if err != nil {
		return nil, 0, err
	}
	own, err := current.Own(runtime.Registry)
	if err != nil {
		return nil, 0, err
	}
	return descriptor, own, nil
}

func serverOf(runtime *core.Runtime) string {
	if server := strings.TrimSpace(runtime.Context.Management.Server); server != "" {
		return server
	}
	return config.DefaultServer
}

// resolveParams checks that args fill want placeholders. A leading
// {server} placeholder left out is taken from the context.
func resolveParams(descriptor metadata.Descriptor, args []string, want int, server string) ([]string, error) {
	names := descriptor.AddressTemplate().PlaceholderNames()
	if len(args) == want {
		return args, nil
	}
	if len(args) == want-1 && len(names) > 0 && names[0] == "server" {
		return append([]string{server}, args...), nil
	}

	expected := names
	if want < len(names) {
		expected = names[:want]
	}
	if len(expected) == 0 {
		return nil, common.ValidationError(fmt.Sprintf("%s takes no parameters", descriptor.EntityType()), nil)
	}
	return nil, common.ValidationError(fmt.Sprintf(
		"%s parameters are required: %s",
		descriptor.EntityType(), strings.Join(expected, " "),
	), nil)
}

func renderYAMLText(w io.Writer, value any) error {
	encoded, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	_, err = w.Write(encoded)
	return err
}

func completeTypes(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return kindNames(), cobra.ShellCompDirectiveNoFileComp
}
