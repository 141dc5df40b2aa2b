// Package dispatch executes operations against a management endpoint and
// interprets the responses.
package dispatch

import (
	"context"

	"github.com/crmarques/mgmtbridge/operation"
)

// Dispatcher executes one operation. A returned error means the exchange
// did not complete (no response to reconcile against); a remote failure is
// a Response with a non-success outcome and a nil error.
type Dispatcher interface {
	Execute(ctx context.Context, op operation.Operation) (Response, error)
}

type DispatcherFunc func(ctx context.Context, op operation.Operation) (Response, error)

func (f DispatcherFunc) Execute(ctx context.Context, op operation.Operation) (Response, error) {
	return f(ctx, op)
}

// Middleware decorates a Dispatcher.
type Middleware func(Dispatcher) Dispatcher

// Chain applies middlewares so the first one is the outermost.
func Chain(next Dispatcher, middlewares ...Middleware) Dispatcher {
	for idx := len(middlewares) - 1; idx >= 0; idx-- {
		next = middlewares[idx](next)
	}
	return next
}
