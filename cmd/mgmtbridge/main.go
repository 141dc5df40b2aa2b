package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/core"
	"github.com/crmarques/mgmtbridge/credentials"
	"github.com/crmarques/mgmtbridge/internal/cli"
	"github.com/crmarques/mgmtbridge/session"
)

func main() {
	metrics := prometheus.NewRegistry()
	bootstrap := core.BootstrapConfig{
		Environ: os.Environ(),
		Metrics: metrics,
	}

	if err := cli.Execute(newDependencies(bootstrap, metrics)); err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}

// newDependencies defers runtime construction until a command needs the
// management endpoint, so help, completion and context editing work
// without a reachable server.
func newDependencies(bootstrap core.BootstrapConfig, metrics prometheus.Gatherer) cli.Dependencies {
	return cli.Dependencies{
		Contexts: core.NewContextService(bootstrap),
		OpenRuntime: func(ctx context.Context, selection config.ContextSelection, notifier session.Notifier) (*core.Runtime, error) {
			opts := bootstrap
			opts.Notifier = notifier
			return core.NewRuntime(ctx, opts, selection)
		},
		OpenCredentials: func(ctx context.Context, selection config.ContextSelection) (credentials.Store, error) {
			return core.NewCredentialStore(ctx, bootstrap, selection)
		},
		Metrics: metrics,
	}
}
