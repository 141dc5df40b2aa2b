package common

import (
	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/config"
)

type GlobalFlags struct {
	Context  string
	Server   string
	Debug    bool
	Verbose  bool
	NoStatus bool
	NoColor  bool
	Output   string
	JQ       string
	Metrics  bool
}

// Selection turns the context related flags into a context selection.
func (f *GlobalFlags) Selection() config.ContextSelection {
	selection := config.ContextSelection{}
	if f == nil {
		return selection
	}
	selection.Name = f.Context
	if f.Server != "" {
		selection.Overrides = map[string]string{config.OverrideServer: f.Server}
	}
	return selection
}

func BindGlobalFlags(command *cobra.Command, flags *GlobalFlags) {
	command.PersistentFlags().StringVarP(&flags.Context, "context", "c", "", "context name")
	command.PersistentFlags().StringVarP(&flags.Server, "server", "s", "", "messaging server name (overrides the context)")
	command.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "log management requests and responses")
	command.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "show complementary command output")
	command.PersistentFlags().BoolVarP(&flags.NoStatus, "no-status", "n", false, "hide status output")
	command.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "disable color output")
	command.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputAuto, "output format: auto|text|json|yaml")
	command.PersistentFlags().StringVar(&flags.JQ, "jq", "", "jq expression applied to structured output")
	command.PersistentFlags().BoolVar(&flags.Metrics, "metrics", false, "print dispatch metrics to stderr on exit")
	_ = command.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{OutputAuto, OutputText, OutputJSON, OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
}

func IsVerbose(flags *GlobalFlags) bool {
	return flags != nil && (flags.Verbose || flags.Debug)
}

// FieldFlags collect entity field values.
type FieldFlags struct {
	Assignments []string
	Payload     string
	Format      string
}

func BindFieldFlags(command *cobra.Command, flags *FieldFlags) {
	command.Flags().StringArrayVar(&flags.Assignments, "set", nil, "field assignment field=value (repeatable; lists are comma separated)")
	command.Flags().StringVarP(&flags.Payload, "payload", "f", "", "payload file of field values (use '-' to read from stdin)")
	command.Flags().StringVarP(&flags.Format, "format", "i", OutputJSON, "payload format: json|yaml")
	_ = command.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{OutputJSON, OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
}
