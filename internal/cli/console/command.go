package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
	"github.com/crmarques/mgmtbridge/model/messaging"
	"github.com/crmarques/mgmtbridge/session"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "console",
		Short: "Messaging view of one server",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}

	command.AddCommand(
		newShowCommand(deps, globalFlags),
		newAddRoleCommand(deps, globalFlags),
	)
	return command
}

type overview struct {
	Server              string                        `json:"server" yaml:"server"`
	Provider            *messaging.Provider           `json:"provider,omitempty" yaml:"provider,omitempty"`
	Queues              []messaging.Queue             `json:"queues" yaml:"queues"`
	Topics              []messaging.Topic             `json:"topics" yaml:"topics"`
	ConnectionFactories []messaging.ConnectionFactory `json:"connectionFactories" yaml:"connectionFactories"`
	SecurityPatterns    []messaging.SecurityPattern   `json:"securityPatterns" yaml:"securityPatterns"`
	AddressingPatterns  []messaging.AddressingPattern `json:"addressingPatterns" yaml:"addressingPatterns"`
}

func newShowCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Load every messaging collection of the server",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) (err error) {
			runtime, err := common.OpenRuntime(command, deps, globalFlags)
			if err != nil {
				return err
			}
			defer common.CloseRuntime(command, runtime, &err)

			view, err := session.NewConsole(runtime.Session, serverName(runtime.Context))
			if err != nil {
				return err
			}
			defer view.Close()
			if err := view.Refresh(command.Context()); err != nil {
				return err
			}

			value := overview{
				Server:              view.Server(),
				Queues:              view.Queues.Items(),
				Topics:              view.Topics.Items(),
				ConnectionFactories: view.Factories.Items(),
				SecurityPatterns:    view.Security.Items(),
				AddressingPatterns:  view.Addressing.Items(),
			}
			if provider, ok := view.Provider(); ok {
				value.Provider = &provider
			}
			return common.WriteOutput(command, globalFlags, value, renderOverview)
		},
	}
}

func renderOverview(w io.Writer, value overview) error {
	_, _ = fmt.Fprintf(w, "server: %s\n", value.Server)
	if value.Provider != nil {
		_, _ = fmt.Fprintf(w, "persistence: %t  security: %t  message counters: %t\n",
			value.Provider.PersistenceEnabled, value.Provider.SecurityEnabled, value.Provider.MessageCounterEnabled)
	}

	sections := []struct {
		title string
		names []string
	}{
		{title: "queues", names: names(value.Queues, func(q messaging.Queue) string { return q.Name + " " + q.JndiName })},
		{title: "topics", names: names(value.Topics, func(t messaging.Topic) string { return t.Name + " " + t.JndiName })},
		{title: "connection factories", names: names(value.ConnectionFactories, func(f messaging.ConnectionFactory) string { return f.Name })},
		{title: "security patterns", names: names(value.SecurityPatterns, func(s messaging.SecurityPattern) string { return s.Pattern + " " + s.Role })},
		{title: "addressing patterns", names: names(value.AddressingPatterns, func(a messaging.AddressingPattern) string { return a.Pattern })},
	}
	for _, section := range sections {
		if _, err := fmt.Fprintf(w, "%s (%d)\n", section.title, len(section.names)); err != nil {
			return err
		}
		for _, name := range section.names {
			if _, err := fmt.Fprintf(w, "  %s\n", strings.TrimSpace(name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func names[E any](items []E, label func(E) string) []string {
	out := make([]string, len(items))
	for idx, item := range items {
		out[idx] = label(item)
	}
	return out
}

type permissions struct {
	send                  bool
	consume               bool
	createDurableQueue    bool
	deleteDurableQueue    bool
	createNonDurableQueue bool
	deleteNonDurableQueue bool
	manage                bool
}

func newAddRoleCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var granted permissions

	command := &cobra.Command{
		Use:   "add-role <pattern> <role>",
		Short: "Grant a role on a security-setting pattern",
		Long:  "Grant a role on a security-setting pattern. The security-setting is added in the same request when the server does not have it yet.",
		Example: strings.Join([]string{
			"  mgmtbridge console add-role '#' guest --send --consume",
			"  mgmtbridge console add-role 'jms.queue.orders' operator --manage",
		}, "\n"),
		Args: cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, args []string) (err error) {
			pattern := strings.TrimSpace(args[0])
			role := strings.TrimSpace(args[1])
			if pattern == "" || role == "" {
				return common.ValidationError("pattern and role are required", nil)
			}

			runtime, err := common.OpenRuntime(command, deps, globalFlags)
			if err != nil {
				return err
			}
			defer common.CloseRuntime(command, runtime, &err)

			view, err := session.NewConsole(runtime.Session, serverName(runtime.Context))
			if err != nil {
				return err
			}
			defer view.Close()
			if err := view.Security.Refresh(command.Context()); err != nil {
				return err
			}

			result, err := view.CreateSecurityPattern(command.Context(), messaging.SecurityPattern{
				Pattern:               pattern,
				Role:                  role,
				Send:                  granted.send,
				Consume:               granted.consume,
				CreateDurableQueue:    granted.createDurableQueue,
				DeleteDurableQueue:    granted.deleteDurableQueue,
				CreateNonDurableQueue: granted.createNonDurableQueue,
				DeleteNonDurableQueue: granted.deleteNonDurableQueue,
				Manage:                granted.manage,
			})
			if err != nil {
				return err
			}
			return common.OutcomeError(result)
		},
	}

	flags := command.Flags()
	flags.BoolVar(&granted.send, "send", false, "allow sending")
	flags.BoolVar(&granted.consume, "consume", false, "allow consuming")
	flags.BoolVar(&granted.createDurableQueue, "create-durable-queue", false, "allow creating durable queues")
	flags.BoolVar(&granted.deleteDurableQueue, "delete-durable-queue", false, "allow deleting durable queues")
	flags.BoolVar(&granted.createNonDurableQueue, "create-non-durable-queue", false, "allow creating non-durable queues")
	flags.BoolVar(&granted.deleteNonDurableQueue, "delete-non-durable-queue", false, "allow deleting non-durable queues")
	flags.BoolVar(&granted.manage, "manage", false, "allow management operations")
	return command
}

func serverName(cfg config.Context) string {
	if server := strings.TrimSpace(cfg.Management.Server); server != "" {
		return server
	}
	return config.DefaultServer
}
