// Package telemetry configures the OpenTelemetry tracer and meter
// providers used by the dispatch chain.
package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/faults"
)

const (
	DefaultServiceName = "mgmtbridge"
	instrumentation    = "github.com/crmarques/mgmtbridge"
)

// ShutdownFunc flushes pending telemetry and releases the exporters.
type ShutdownFunc func(context.Context) error

type Provider struct {
	provider trace.TracerProvider
	meters   metric.MeterProvider
	shutdown ShutdownFunc
}

func (p Provider) Tracer() trace.Tracer {
	return p.provider.Tracer(instrumentation)
}

func (p Provider) Meter() metric.Meter {
	return p.meters.Meter(instrumentation)
}

func (p Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// Enabled reports whether spans and metrics are exported.
func (p Provider) Enabled() bool {
	_, isNoop := p.provider.(noop.TracerProvider)
	return !isNoop
}

// Setup builds an OTLP/gRPC exporting provider when cfg names an endpoint
// and a no-op provider otherwise. The provider is also installed globally.
func Setup(ctx context.Context, cfg *config.Telemetry) (Provider, error) {
	if cfg == nil || strings.TrimSpace(cfg.OTLPEndpoint) == "" {
		return Provider{provider: noop.NewTracerProvider(), meters: metricnoop.NewMeterProvider()}, nil
	}
	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)

	traceOptions := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	metricOptions := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(endpoint)}
	if cfg.Insecure {
		traceOptions = append(traceOptions, otlptracegrpc.WithInsecure())
		metricOptions = append(metricOptions, otlpmetricgrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOptions...)
	if err != nil {
		return Provider{}, faults.NewTypedError(faults.ConfigurationError, "failed to create otlp trace exporter", err)
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, metricOptions...)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		return Provider{}, faults.NewTypedError(faults.ConfigurationError, "failed to create otlp metric exporter", err)
	}

	res := Resource(cfg)
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)

	return Provider{
		provider: tracerProvider,
		meters:   meterProvider,
		shutdown: func(ctx context.Context) error {
			return errors.Join(tracerProvider.Shutdown(ctx), meterProvider.Shutdown(ctx))
		},
	}, nil
}

// Resource describes this process to the collector.
func Resource(cfg *config.Telemetry) *resource.Resource {
	name := DefaultServiceName
	if cfg != nil && strings.TrimSpace(cfg.ServiceName) != "" {
		name = strings.TrimSpace(cfg.ServiceName)
	}
	return resource.NewSchemaless(attribute.String("service.name", name))
}
