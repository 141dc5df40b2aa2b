package common

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/core"
	"github.com/crmarques/mgmtbridge/credentials"
	"github.com/crmarques/mgmtbridge/session"
)

// RuntimeFactory opens a runtime for the selected context. Commands call it
// lazily so that context and help commands never touch an endpoint.
type RuntimeFactory func(ctx context.Context, selection config.ContextSelection, notifier session.Notifier) (*core.Runtime, error)

// CredentialFactory opens the credential store of the selected context.
type CredentialFactory func(ctx context.Context, selection config.ContextSelection) (credentials.Store, error)

type CommandDependencies struct {
	Contexts        config.ContextService
	OpenRuntime     RuntimeFactory
	OpenCredentials CredentialFactory
	// Metrics is dumped by --metrics; nil disables the dump.
	Metrics prometheus.Gatherer
}

func RequireContexts(deps CommandDependencies) (config.ContextService, error) {
	if deps.Contexts == nil {
		return nil, ValidationError("context service is not configured", nil)
	}
	return deps.Contexts, nil
}

// OpenRuntime opens the runtime selected by the global flags with a
// notifier that reports to the command's stderr.
func OpenRuntime(command *cobra.Command, deps CommandDependencies, flags *GlobalFlags) (*core.Runtime, error) {
	if deps.OpenRuntime == nil {
		return nil, ValidationError("runtime factory is not configured", nil)
	}
	return deps.OpenRuntime(command.Context(), flags.Selection(), NewStatusNotifier(command.ErrOrStderr(), flags))
}

// CloseRuntime closes runtime and keeps the first error.
func CloseRuntime(command *cobra.Command, runtime *core.Runtime, err *error) {
	closeErr := runtime.Close(context.WithoutCancel(command.Context()))
	if *err == nil && closeErr != nil {
		*err = closeErr
	}
}

func OpenCredentials(command *cobra.Command, deps CommandDependencies, flags *GlobalFlags) (credentials.Store, error) {
	if deps.OpenCredentials == nil {
		return nil, ValidationError("credential store factory is not configured", nil)
	}
	return deps.OpenCredentials(command.Context(), flags.Selection())
}
