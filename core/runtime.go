package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/credentials"
	"github.com/crmarques/mgmtbridge/dispatch"
	"github.com/crmarques/mgmtbridge/faults"
	configfile "github.com/crmarques/mgmtbridge/internal/providers/config/file"
	credentialsfile "github.com/crmarques/mgmtbridge/internal/providers/credentials/file"
	httpdispatch "github.com/crmarques/mgmtbridge/internal/providers/dispatch/http"
	"github.com/crmarques/mgmtbridge/internal/providers/dispatch/memory"
	"github.com/crmarques/mgmtbridge/internal/telemetry"
	"github.com/crmarques/mgmtbridge/model"
	"github.com/crmarques/mgmtbridge/session"
	"github.com/crmarques/mgmtbridge/tree"
)

// Version reported by an unseeded in-memory endpoint.
const (
	memoryMajorVersion = 1
	memoryMinorVersion = 0
	memoryProductName  = "mgmtbridge-memory"
)

func NewContextService(opts BootstrapConfig) config.ContextService {
	return configfile.NewCatalog(opts.ContextCatalogPath)
}

// ResolveSelection applies the MGMTBRIDGE_CTX_* environment on top of
// selection. Explicit selection values win over the environment.
func ResolveSelection(opts BootstrapConfig, selection config.ContextSelection) (config.ContextSelection, error) {
	envOverrides, err := config.OverridesFromEnv(opts.Environ)
	if err != nil {
		return config.ContextSelection{}, err
	}

	resolved := config.ContextSelection{
		Name:      selection.Name,
		Overrides: config.MergeOverrides(envOverrides, selection.Overrides),
	}
	if strings.TrimSpace(resolved.Name) == "" {
		resolved.Name = config.ContextNameFromEnv(opts.Environ)
	}
	return resolved, nil
}

// NewCredentialStore opens the credential store of the selected context.
func NewCredentialStore(ctx context.Context, opts BootstrapConfig, selection config.ContextSelection) (credentials.Store, error) {
	selection, err := ResolveSelection(opts, selection)
	if err != nil {
		return nil, err
	}
	resolvedContext, err := NewContextService(opts).ResolveContext(ctx, selection)
	if err != nil {
		return nil, err
	}
	if resolvedContext.Credentials == nil {
		return nil, faults.NewTypedError(
			faults.ConfigurationError,
			fmt.Sprintf("context %q has no credentials store", resolvedContext.Name),
			nil,
		)
	}
	return credentialsfile.New(*resolvedContext.Credentials)
}

// NewRuntime resolves the selected context and wires registry, dispatcher
// chain and session for it.
func NewRuntime(ctx context.Context, opts BootstrapConfig, selection config.ContextSelection) (*Runtime, error) {
	contextService := NewContextService(opts)

	selection, err := ResolveSelection(opts, selection)
	if err != nil {
		return nil, err
	}
	resolvedContext, err := contextService.ResolveContext(ctx, selection)
	if err != nil {
		return nil, err
	}
	logger := logr.FromContextOrDiscard(ctx).WithValues("context", resolvedContext.Name)

	registry, err := model.NewRegistry(model.ProfileAddress(resolvedContext.Management.Profile))
	if err != nil {
		return nil, err
	}

	endpoint, err := buildEndpoint(ctx, resolvedContext, opts)
	if err != nil {
		return nil, err
	}

	provider, err := telemetry.Setup(ctx, resolvedContext.Telemetry)
	if err != nil {
		return nil, err
	}

	middlewares := []dispatch.Middleware{dispatch.RequestID(), dispatch.Log()}
	if provider.Enabled() {
		measure, err := dispatch.Measure(provider.Meter())
		if err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
		middlewares = append(middlewares, dispatch.Trace(provider.Tracer()), measure)
	}
	if opts.Metrics != nil {
		middlewares = append(middlewares, dispatch.Instrument(dispatch.NewMetrics(opts.Metrics)))
	}
	dispatcher := dispatch.Chain(endpoint, middlewares...)

	runtime := &Runtime{
		Contexts:   contextService,
		Context:    resolvedContext,
		Registry:   registry,
		Dispatcher: dispatcher,
		Telemetry:  provider,
	}

	if constraint := strings.TrimSpace(resolvedContext.Management.MinVersion); constraint != "" {
		version, err := dispatch.ReadVersion(ctx, dispatcher)
		if err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
		if err := dispatch.CheckVersion(version, constraint); err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
		logger.V(1).Info("management version accepted", "version", version.Management.String(), "constraint", constraint)
		runtime.Version = &version
	}

	sessionOptions := []session.Option{
		session.WithServerName(resolvedContext.Management.Server),
		session.WithVerifyParent(resolvedContext.Management.VerifyParent),
	}
	if opts.Notifier != nil {
		sessionOptions = append(sessionOptions, session.WithNotifier(opts.Notifier))
	}
	runtime.Session, err = session.New(registry, dispatcher, sessionOptions...)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	return runtime, nil
}

func buildEndpoint(ctx context.Context, cfg config.Context, opts BootstrapConfig) (dispatch.Dispatcher, error) {
	management := cfg.Management
	switch {
	case management.HTTP != nil:
		endpoint := *management.HTTP
		if credentials.HasPlaceholders(endpoint.Auth) {
			var lookup credentials.LookupFunc
			if cfg.Credentials != nil {
				store, err := credentialsfile.New(*cfg.Credentials)
				if err != nil {
					return nil, err
				}
				lookup = store.Get
			}
			resolvedAuth, err := credentials.ResolveAuth(ctx, endpoint.Auth, lookup)
			if err != nil {
				return nil, err
			}
			endpoint.Auth = resolvedAuth
		}

		var httpOptions []httpdispatch.Option
		if opts.HTTPTransport != nil {
			httpOptions = append(httpOptions, httpdispatch.WithTransport(opts.HTTPTransport))
		}
		return httpdispatch.New(endpoint, httpOptions...)
	case management.Memory != nil:
		mgmt := memory.New()
		if seedFile := strings.TrimSpace(management.Memory.SeedFile); seedFile != "" {
			if err := mgmt.LoadFile(seedFile); err != nil {
				return nil, err
			}
			return mgmt, nil
		}
		if err := seedDefaults(mgmt, management); err != nil {
			return nil, err
		}
		return mgmt, nil
	default:
		return nil, faults.NewTypedError(faults.InternalError, "management endpoint is invalid", nil)
	}
}

// seedDefaults gives an unseeded memory endpoint a version and the
// configured messaging server.
func seedDefaults(mgmt *memory.Model, management config.Management) error {
	root := tree.NewObject()
	root.Set(dispatch.AttrManagementMajorVersion, tree.IntValue(memoryMajorVersion))
	root.Set(dispatch.AttrManagementMinorVersion, tree.IntValue(memoryMinorVersion))
	root.Set(dispatch.AttrManagementMicroVersion, tree.IntValue(0))
	root.Set(dispatch.AttrProductName, tree.StringValue(memoryProductName))
	mgmt.Seed(address.Address{}, root)

	server, err := address.New("subsystem", "messaging", "hornetq-server", management.Server)
	if err != nil {
		return faults.NewTypedError(faults.InternalError, fmt.Sprintf("invalid server %q", management.Server), err)
	}
	mgmt.Seed(model.ProfileAddress(management.Profile).Concat(server), tree.NewObject())
	return nil
}
