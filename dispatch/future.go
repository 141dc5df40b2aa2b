package dispatch

import (
	"context"
	"fmt"

	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/operation"
)

// Future is an in-flight operation. The request always runs to completion:
// there is no way to cancel it once submitted.
type Future struct {
	done     chan struct{}
	response Response
	err      error
}

// Submit starts op on its own goroutine. Cancelling ctx does not stop the
// request; only its values are carried over.
func Submit(ctx context.Context, dispatcher Dispatcher, op operation.Operation) *Future {
	future := &Future{done: make(chan struct{})}
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(future.done)
		defer func() {
			if recovered := recover(); recovered != nil {
				future.err = faults.NewTypedError(faults.InternalError, fmt.Sprintf("dispatcher panic: %v", recovered), nil)
			}
		}()
		future.response, future.err = dispatcher.Execute(runCtx, op)
	}()
	return future
}

func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await waits for the response. If ctx ends first Await returns a
// transport error wrapping ctx.Err() while the request keeps running.
func (f *Future) Await(ctx context.Context) (Response, error) {
	select {
	case <-f.done:
		return f.response, f.err
	case <-ctx.Done():
		return Response{}, faults.NewTypedError(faults.TransportError, "stopped waiting for the management response", ctx.Err())
	}
}

// Then runs callback once the request completes. The callback always runs,
// on a goroutine of its own.
func (f *Future) Then(callback func(Response, error)) {
	go func() {
		<-f.done
		callback(f.response, f.err)
	}()
}

// Execute submits op and waits for it.
func Execute(ctx context.Context, dispatcher Dispatcher, op operation.Operation) (Response, error) {
	return Submit(ctx, dispatcher, op).Await(ctx)
}
