package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/crmarques/mgmtbridge/operation"
)

// Measure records operation latency and results on an OpenTelemetry meter,
// for deployments that push metrics over OTLP instead of scraping.
func Measure(meter metric.Meter) (Middleware, error) {
	duration, err := meter.Float64Histogram(
		"mgmtbridge.dispatch.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Management operation duration"),
	)
	if err != nil {
		return nil, err
	}
	operations, err := meter.Int64Counter(
		"mgmtbridge.dispatch.operations",
		metric.WithDescription("Management operations executed"),
	)
	if err != nil {
		return nil, err
	}

	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(ctx context.Context, op operation.Operation) (Response, error) {
			started := time.Now()
			response, err := next.Execute(ctx, op)

			attrs := []attribute.KeyValue{
				attribute.String("mgmt.operation", op.Name()),
				attribute.String("mgmt.result", resultOf(response, err)),
			}
			if err != nil {
				attrs = append(attrs, attribute.String("mgmt.error_category", string(errorCategory(err))))
			}
			set := metric.WithAttributes(attrs...)
			duration.Record(ctx, time.Since(started).Seconds(), set)
			operations.Add(ctx, 1, set)
			return response, err
		})
	}, nil
}
