package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/crmarques/mgmtbridge/dispatch"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/operation"
	"github.com/crmarques/mgmtbridge/tree"
)

// Scope names what gets re-read after a mutation: the collection of
// EntityType under Params, or the single resource when Params fill every
// placeholder of the entity type's address.
type Scope struct {
	EntityType string
	Params     []string
}

func (s Scope) key() string {
	return s.EntityType + "\x00" + strings.Join(s.Params, "\x00")
}

// Listener receives the result of a re-read. childKinds is nil for a
// single resource read. A listener that cannot decode the result must leave
// its state untouched and return the error.
type Listener func(ctx context.Context, result tree.Node, childKinds []string) error

// Reconciler re-reads a scope from the endpoint and hands the fresh result
// to every listener subscribed to that scope.
type Reconciler struct {
	registry   *metadata.Registry
	builder    operation.Builder
	dispatcher dispatch.Dispatcher

	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]Listener
}

func NewReconciler(registry *metadata.Registry, dispatcher dispatch.Dispatcher) *Reconciler {
	return &Reconciler{
		registry:   registry,
		builder:    operation.NewBuilder(registry),
		dispatcher: dispatcher,
		listeners:  map[string]map[int]Listener{},
	}
}

// Subscribe registers listener for scope and returns the function that
// removes it.
func (r *Reconciler) Subscribe(scope Scope, listener Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scope.key()
	if r.listeners[key] == nil {
		r.listeners[key] = map[int]Listener{}
	}
	id := r.nextID
	r.nextID++
	r.listeners[key][id] = listener

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners[key], id)
		if len(r.listeners[key]) == 0 {
			delete(r.listeners, key)
		}
	}
}

// Reconcile issues the read for scope and replaces listener state with the
// result. The read is issued even when nobody listens, and listeners get its
// result even if ctx is cancelled meanwhile.
func (r *Reconciler) Reconcile(ctx context.Context, scope Scope) error {
	ctx = context.WithoutCancel(ctx)
	op, childKinds, err := r.readOperation(scope)
	if err != nil {
		return err
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("entityType", scope.EntityType, "params", scope.Params)
	response, err := dispatch.Execute(ctx, r.dispatcher, op)
	if err != nil {
		logger.Error(err, "refresh read did not complete")
		return err
	}
	if outcome := dispatch.Interpret(response); !outcome.Success {
		logger.Info("refresh read failed", "description", outcome.Description)
		return outcome.Err()
	}

	var errs []error
	for _, listener := range r.snapshot(scope) {
		if err := listener(ctx, response.Result, childKinds); err != nil {
			logger.Error(err, "discarding refreshed state")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reconciler) readOperation(scope Scope) (operation.Operation, []string, error) {
	descriptor, err := r.registry.Lookup(scope.EntityType)
	if err != nil {
		return operation.Operation{}, nil, err
	}
	if len(scope.Params) == descriptor.AddressTemplate().Placeholders() {
		op, err := r.builder.Read(scope.EntityType, false, scope.Params...)
		return op, nil, err
	}
	return r.builder.ReadChildren(scope.EntityType, scope.Params...)
}

func (r *Reconciler) snapshot(scope Scope) []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()

	registered := r.listeners[scope.key()]
	out := make([]Listener, 0, len(registered))
	for id := 0; id < r.nextID && len(out) < len(registered); id++ {
		if listener, ok := registered[id]; ok {
			out = append(out, listener)
		}
	}
	return out
}
