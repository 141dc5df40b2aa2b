package core

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/dispatch"
	"github.com/crmarques/mgmtbridge/internal/telemetry"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/session"
)

// Runtime is a fully wired session against the endpoint of one context.
type Runtime struct {
	Contexts   config.ContextService
	Context    config.Context
	Registry   *metadata.Registry
	Dispatcher dispatch.Dispatcher
	Session    *session.Session
	// Version is set when the context declares a minimum version.
	Version   *dispatch.ServerVersion
	Telemetry telemetry.Provider
}

// Close ends the session and flushes telemetry.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if r.Session != nil {
		r.Session.End()
	}
	return r.Telemetry.Shutdown(ctx)
}

type BootstrapConfig struct {
	ContextCatalogPath string
	// Environ supplies MGMTBRIDGE_CTX_* overrides, normally os.Environ().
	Environ []string
	// Metrics receives the dispatch collectors; nil skips instrumentation.
	Metrics  prometheus.Registerer
	Notifier session.Notifier
	// HTTPTransport replaces the transport of an http endpoint.
	HTTPTransport http.RoundTripper
}
