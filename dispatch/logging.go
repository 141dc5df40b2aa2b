package dispatch

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/crmarques/mgmtbridge/operation"
	"github.com/crmarques/mgmtbridge/tree"
)

// HeaderRequestID is the operation header carrying the request id.
const HeaderRequestID = "request-id"

// RequestID stamps a request id on operations that have none and attaches
// it, with the operation name and address, to the context logger.
func RequestID() Middleware {
	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(ctx context.Context, op operation.Operation) (Response, error) {
			id, ok := op.Header(HeaderRequestID).AsString()
			if !ok || id == "" {
				id = uuid.NewString()
				op = op.WithHeader(HeaderRequestID, tree.StringValue(id))
			}

			logger := logr.FromContextOrDiscard(ctx).WithValues(
				"requestID", id,
				"operation", op.Name(),
				"address", op.Address().String(),
			)
			return next.Execute(logr.NewContext(ctx, logger), op)
		})
	}
}

// Log writes one line per operation: V(1) on success, Info on a failed
// outcome and Error when no response arrived.
func Log() Middleware {
	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(ctx context.Context, op operation.Operation) (Response, error) {
			logger := logr.FromContextOrDiscard(ctx)
			logger.V(2).Info("dispatching operation", "request", op.Node().String())

			started := time.Now()
			response, err := next.Execute(ctx, op)
			elapsed := time.Since(started)
			if err != nil {
				logger.Error(err, "operation did not complete", "elapsed", elapsed)
				return response, err
			}

			if outcome := Interpret(response); !outcome.Success {
				logger.Info("operation failed", "outcome", response.Outcome, "description", outcome.Description, "elapsed", elapsed)
			} else {
				logger.V(1).Info("operation succeeded", "elapsed", elapsed)
			}
			return response, nil
		})
	}
}
