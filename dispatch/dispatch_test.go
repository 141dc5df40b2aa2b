package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/operation"
	"github.com/crmarques/mgmtbridge/tree"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	response Response
	err      error
	release  chan struct{}
	seen     []operation.Operation
	contexts []context.Context
}

func (f *fakeDispatcher) Execute(ctx context.Context, op operation.Operation) (Response, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, op)
	f.contexts = append(f.contexts, ctx)
	return f.response, f.err
}

func testOperation() operation.Operation {
	addr, _ := address.Parse("/subsystem=messaging/hornetq-server=default/jms-queue=orders")
	return operation.Single(operation.Step{Address: addr, Name: operation.Remove})
}

func TestInterpretIsExactMatch(t *testing.T) {
	t.Parallel()

	result := tree.NewObject()
	result.Set("name", tree.StringValue("orders"))
	if outcome := Interpret(Response{Outcome: "success", Result: result}); !outcome.Success || outcome.Err() != nil {
		t.Fatalf("expected success, got %+v", outcome)
	}

	for _, value := range []string{"SUCCESS", "Success", "failed", "", "success "} {
		outcome := Interpret(Response{Outcome: value, Result: result})
		if outcome.Success {
			t.Fatalf("outcome %q: expected failure", value)
		}
		if !faults.IsCategory(outcome.Err(), faults.RemoteOperationFailure) {
			t.Fatalf("outcome %q: expected remote operation failure, got %v", value, outcome.Err())
		}
	}
}

func TestInterpretCarriesDescription(t *testing.T) {
	t.Parallel()

	outcome := Interpret(FailureResponse("WFLYCTL0216: Management resource not found"))
	if outcome.Description != "WFLYCTL0216: Management resource not found" {
		t.Fatalf("unexpected description %q", outcome.Description)
	}
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	node, err := tree.Parse([]byte(`{"outcome":"failed","failure-description":{"domain-failure":"boom"},"response-headers":{"operation-requires-reload":true},"rolled-back":true}`))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	response, err := ParseResponse(node)
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if response.Outcome != "failed" || response.FailureDescription != `{"domain-failure":"boom"}` {
		t.Fatalf("unexpected response %+v", response)
	}
	if reload, _ := response.Headers.Get("operation-requires-reload").AsBool(); !reload {
		t.Fatalf("expected response headers, got %s", response.Headers)
	}

	if _, err := ParseResponse(tree.StringValue("ok")); !faults.IsCategory(err, faults.DecodeTypeError) {
		t.Fatalf("expected decode type error, got %v", err)
	}
}

func TestFutureRunsToCompletionAfterCancel(t *testing.T) {
	t.Parallel()

	dispatcher := &fakeDispatcher{response: SuccessResponse(tree.Node{}), release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	future := Submit(ctx, dispatcher, testOperation())
	cancel()

	if _, err := future.Await(ctx); !errors.Is(err, context.Canceled) || !faults.IsCategory(err, faults.TransportError) {
		t.Fatalf("expected Await to report cancellation as a transport error, got %v", err)
	}

	completed := make(chan Response, 1)
	future.Then(func(response Response, err error) {
		if err != nil {
			t.Errorf("unexpected error %v", err)
		}
		completed <- response
	})
	close(dispatcher.release)

	select {
	case response := <-completed:
		if response.Outcome != OutcomeSuccess {
			t.Fatalf("unexpected response %+v", response)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback never ran")
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if len(dispatcher.contexts) != 1 || dispatcher.contexts[0].Err() != nil {
		t.Fatal("expected the dispatcher to run with an uncancelled context")
	}
}

func TestFutureRecoversPanics(t *testing.T) {
	t.Parallel()

	panicking := DispatcherFunc(func(context.Context, operation.Operation) (Response, error) {
		panic("boom")
	})
	_, err := Execute(context.Background(), panicking, testOperation())
	if !faults.IsCategory(err, faults.InternalError) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestInstrumentRecordsResults(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics(prometheus.NewRegistry())
	failing := &fakeDispatcher{response: FailureResponse("denied")}
	broken := &fakeDispatcher{err: faults.NewTypedError(faults.TransportError, "connection refused", nil)}

	op := testOperation()
	if _, err := Instrument(metrics)(failing).Execute(context.Background(), op); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := Instrument(metrics)(broken).Execute(context.Background(), op); err == nil {
		t.Fatal("expected transport error")
	}

	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues(operation.Remove, resultFailed)); got != 1 {
		t.Fatalf("expected one failed remove, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues(operation.Remove, resultError)); got != 1 {
		t.Fatalf("expected one errored remove, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Errors.WithLabelValues(string(faults.TransportError))); got != 1 {
		t.Fatalf("expected one transport error, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.InFlight); got != 0 {
		t.Fatalf("expected no operation in flight, got %v", got)
	}
}

func TestTraceRecordsSpan(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	dispatcher := Chain(&fakeDispatcher{response: FailureResponse("duplicate resource")}, Trace(provider.Tracer("test")))
	if _, err := dispatcher.Execute(context.Background(), testOperation()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name() != "mgmt remove" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Error || spans[0].Status().Description != "duplicate resource" {
		t.Fatalf("unexpected span status %+v", spans[0].Status())
	}
}

func TestRequestIDAndLogging(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		lines []string
	)
	logger := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	inner := &fakeDispatcher{response: SuccessResponse(tree.Node{})}
	dispatcher := Chain(inner, RequestID(), Log())
	ctx := logr.NewContext(context.Background(), logger)
	if _, err := dispatcher.Execute(ctx, testOperation()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	id, ok := inner.seen[0].Header(HeaderRequestID).AsString()
	if !ok || id == "" {
		t.Fatalf("expected a request id header, got %s", inner.seen[0].Node())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 1 || !strings.Contains(lines[0], `"requestID"="`+id+`"`) || !strings.Contains(lines[0], "operation succeeded") {
		t.Fatalf("unexpected log lines %v", lines)
	}
}

func TestRequestIDKeepsExistingHeader(t *testing.T) {
	t.Parallel()

	inner := &fakeDispatcher{response: SuccessResponse(tree.Node{})}
	op := testOperation().WithHeader(HeaderRequestID, tree.StringValue("fixed"))
	if _, err := RequestID()(inner).Execute(context.Background(), op); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if id, _ := inner.seen[0].Header(HeaderRequestID).AsString(); id != "fixed" {
		t.Fatalf("expected request id to be kept, got %q", id)
	}
}
