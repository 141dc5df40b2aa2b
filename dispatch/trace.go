package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/crmarques/mgmtbridge/operation"
)

const tracerName = "github.com/crmarques/mgmtbridge/dispatch"

// Trace wraps each operation in a client span. A nil tracer uses the
// global provider.
func Trace(tracer trace.Tracer) Middleware {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(ctx context.Context, op operation.Operation) (Response, error) {
			ctx, span := tracer.Start(ctx, "mgmt "+op.Name(),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("mgmt.operation", op.Name()),
					attribute.String("mgmt.address", op.Address().String()),
					attribute.Int("mgmt.steps", len(op.Steps())),
				),
			)
			defer span.End()

			if id, ok := op.Header(HeaderRequestID).AsString(); ok {
				span.SetAttributes(attribute.String("mgmt.request_id", id))
			}

			response, err := next.Execute(ctx, op)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return response, err
			}

			outcome := Interpret(response)
			span.SetAttributes(attribute.String("mgmt.outcome", response.Outcome))
			if !outcome.Success {
				span.SetStatus(codes.Error, outcome.Description)
			}
			return response, nil
		})
	}
}
