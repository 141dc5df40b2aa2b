// Package session drives entity reads and mutations against a dispatcher
// and keeps local state in line with the endpoint: every mutation that
// produced a response, successful or not, is followed by a re-read of the
// affected collection.
//
// Creating a child under a parent that may not exist consults the locally
// loaded collection. A parent created or removed concurrently by someone
// else makes the composite fail server-side; that failure is reported like
// any other and the re-read shows the actual state. WithVerifyParent trades
// one extra read for a fresh check.
package session

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/go-logr/logr"

	"github.com/crmarques/mgmtbridge/adapter"
	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/dispatch"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/operation"
)

type Session struct {
	registry     *metadata.Registry
	builder      operation.Builder
	dispatcher   dispatch.Dispatcher
	reconciler   *Reconciler
	reload       *ReloadState
	notifier     Notifier
	server       string
	verifyParent bool
}

type Option func(*Session)

func WithNotifier(notifier Notifier) Option {
	return func(s *Session) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithReloadState shares a reload state instead of a fresh one.
func WithReloadState(state *ReloadState) Option {
	return func(s *Session) {
		if state != nil {
			s.reload = state
		}
	}
}

// WithServerName sets the name reload requirements are recorded under.
func WithServerName(name string) Option {
	return func(s *Session) {
		s.server = name
	}
}

// WithVerifyParent makes CreateUnderParent read the parent resource from
// the endpoint instead of trusting the loaded collection.
func WithVerifyParent(enabled bool) Option {
	return func(s *Session) {
		s.verifyParent = enabled
	}
}

func New(registry *metadata.Registry, dispatcher dispatch.Dispatcher, opts ...Option) (*Session, error) {
	if registry == nil {
		return nil, faults.NewTypedError(faults.ValidationError, "session requires a metadata registry", nil)
	}
	if !registry.Frozen() {
		return nil, faults.NewTypedError(faults.MetadataError, "session requires a frozen metadata registry", nil)
	}
	if dispatcher == nil {
		return nil, faults.NewTypedError(faults.ValidationError, "session requires a dispatcher", nil)
	}

	s := &Session{
		registry:   registry,
		builder:    operation.NewBuilder(registry),
		dispatcher: dispatcher,
		reconciler: NewReconciler(registry, dispatcher),
		reload:     NewReloadState(),
		notifier:   LogNotifier(),
		server:     "default",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Session) Registry() *metadata.Registry {
	return s.registry
}

func (s *Session) Builder() operation.Builder {
	return s.builder
}

func (s *Session) Reconciler() *Reconciler {
	return s.reconciler
}

func (s *Session) ReloadState() *ReloadState {
	return s.reload
}

// End closes the session boundary and forgets pending reload state.
func (s *Session) End() {
	s.reload.Reset()
}

// Result describes a mutation attempt. Dispatched is false when there was
// nothing to send. RefreshErr holds the error of the follow-up re-read.
type Result struct {
	Dispatched bool
	Outcome    dispatch.Outcome
	RefreshErr error
}

// Load reads one entity. params fill every placeholder of the entity
// type's address.
func Load[E any](ctx context.Context, s *Session, entityType string, params ...string) (E, error) {
	var zero E
	entityAdapter, err := adapter.For[E](s.registry, entityType)
	if err != nil {
		return zero, err
	}
	op, err := s.builder.Read(entityType, false, params...)
	if err != nil {
		return zero, err
	}

	response, err := dispatch.Execute(ctx, s.dispatcher, op)
	if err != nil {
		return zero, err
	}
	if outcome := dispatch.Interpret(response); !outcome.Success {
		return zero, outcome.Err()
	}

	entity, err := entityAdapter.Decode(response.Result)
	if err != nil {
		return zero, err
	}
	if identify := entityAdapter.Metadata().Identify; identify != nil && len(params) > 0 {
		identify(&entity, params)
	}
	return entity, nil
}

// LoadList reads the collection of an entity type under scope, the leading
// address parameters.
func LoadList[E any](ctx context.Context, s *Session, entityType string, scope ...string) ([]E, error) {
	entityAdapter, err := adapter.For[E](s.registry, entityType)
	if err != nil {
		return nil, err
	}
	op, childKinds, err := s.builder.ReadChildren(entityType, scope...)
	if err != nil {
		return nil, err
	}

	response, err := dispatch.Execute(ctx, s.dispatcher, op)
	if err != nil {
		return nil, err
	}
	if outcome := dispatch.Interpret(response); !outcome.Success {
		return nil, outcome.Err()
	}
	return entityAdapter.DecodeCollection(response.Result, childKinds)
}

// Create adds entity under scope; its own names come from the entity.
func Create[E any](ctx context.Context, s *Session, entityType string, scope []string, entity E) (Result, error) {
	entityAdapter, err := adapter.For[E](s.registry, entityType)
	if err != nil {
		return Result{}, err
	}
	payload, err := entityAdapter.EncodeNew(entity)
	if err != nil {
		return Result{}, err
	}
	names := entityAdapter.Identity(entity)
	op, err := s.builder.Add(entityType, payload, concat(scope, names)...)
	if err != nil {
		return Result{}, err
	}
	return s.mutate(ctx, op, describe("add", entityType, names), Scope{EntityType: entityType, Params: scope})
}

// CreateUnderParent adds entity together with its parent resource when the
// parent is missing from loaded, the locally held collection.
func CreateUnderParent[E any](ctx context.Context, s *Session, entityType string, scope []string, entity E, loaded []E) (Result, error) {
	entityAdapter, err := adapter.For[E](s.registry, entityType)
	if err != nil {
		return Result{}, err
	}
	names := entityAdapter.Identity(entity)
	if len(names) < 2 {
		return Result{}, faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("%s has no parent resource in its own address", entityType),
			nil,
		)
	}

	child, err := s.builder.Resolve(entityType, concat(scope, names)...)
	if err != nil {
		return Result{}, err
	}
	parent := child.Parent()

	parentNames := names[:len(names)-1]
	parentExists := slices.ContainsFunc(loaded, func(item E) bool {
		identity := entityAdapter.Identity(item)
		return len(identity) == len(names) && slices.Equal(identity[:len(identity)-1], parentNames)
	})
	if s.verifyParent {
		parentExists, err = s.exists(ctx, parent)
		if err != nil {
			return Result{}, err
		}
	}

	payload, err := entityAdapter.EncodeNew(entity)
	if err != nil {
		return Result{}, err
	}
	op, err := s.builder.CreateWithParent(parent, parentExists, child, payload)
	if err != nil {
		return Result{}, err
	}
	return s.mutate(ctx, op, describe("add", entityType, names), Scope{EntityType: entityType, Params: scope})
}

// Save writes the changed attributes of the entity at scope+names. An
// empty change-set, or one naming no bound field, sends nothing.
func (s *Session) Save(ctx context.Context, entityType string, scope []string, names []string, changes adapter.ChangeSet) (Result, error) {
	if changes.IsEmpty() {
		return Result{}, nil
	}
	descriptor, err := s.registry.Lookup(entityType)
	if err != nil {
		return Result{}, err
	}
	payload, err := adapter.EncodeChangeset(descriptor, changes)
	if err != nil {
		return Result{}, err
	}
	if payload.Len() == 0 {
		return Result{}, nil
	}

	op, err := s.builder.WriteAttributes(entityType, payload, concat(scope, names)...)
	if err != nil {
		return Result{}, err
	}
	return s.mutate(ctx, op, describe("save", entityType, names), Scope{EntityType: entityType, Params: scope})
}

func (s *Session) Delete(ctx context.Context, entityType string, scope []string, names []string) (Result, error) {
	op, err := s.builder.Remove(entityType, concat(scope, names)...)
	if err != nil {
		return Result{}, err
	}
	return s.mutate(ctx, op, describe("remove", entityType, names), Scope{EntityType: entityType, Params: scope})
}

// mutate dispatches op, reports the outcome and re-reads refresh. Without
// a response there is nothing to reconcile against and no re-read is made.
// Once op is fired, cancelling ctx no longer abandons its response or the
// re-read that follows it.
func (s *Session) mutate(ctx context.Context, op operation.Operation, subject string, refresh Scope) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	logger := logr.FromContextOrDiscard(ctx).WithValues("subject", subject)

	response, err := dispatch.Execute(ctx, s.dispatcher, op)
	if err != nil {
		s.notifier.Notify(ctx, Notification{Level: LevelError, Message: subject + " failed", Detail: err.Error()})
		return Result{}, err
	}

	outcome := dispatch.Interpret(response)
	if outcome.Success {
		s.notifier.Notify(ctx, Notification{Level: LevelInfo, Message: subject + " succeeded"})
	} else {
		s.notifier.Notify(ctx, Notification{Level: LevelError, Message: subject + " failed", Detail: outcome.Description})
	}

	s.reload.Observe(s.server, outcome.Headers)
	if pending := s.reload.Propagate(); pending != nil {
		s.notifier.Notify(ctx, Notification{Level: LevelWarning, Message: "configuration changes require a reload", Detail: describeServers(pending)})
	}

	result := Result{Dispatched: true, Outcome: outcome}
	if err := s.reconciler.Reconcile(ctx, refresh); err != nil {
		logger.V(1).Info("refresh after mutation failed", "error", err.Error())
		result.RefreshErr = err
	}
	return result, nil
}

func (s *Session) exists(ctx context.Context, addr address.Address) (bool, error) {
	response, err := dispatch.Execute(ctx, s.dispatcher, operation.Single(operation.Step{Address: addr, Name: operation.ReadResource}))
	if err != nil {
		return false, err
	}
	return dispatch.Interpret(response).Success, nil
}

func concat(scope []string, names []string) []string {
	params := make([]string, 0, len(scope)+len(names))
	params = append(params, scope...)
	return append(params, names...)
}

func describe(verb string, entityType string, names []string) string {
	if len(names) == 0 {
		return verb + " " + entityType
	}
	return verb + " " + entityType + " " + strings.Join(names, "/")
}

func describeServers(states []ServerState) string {
	parts := make([]string, 0, len(states))
	for _, state := range states {
		parts = append(parts, state.Name+" ("+state.Requirement.String()+")")
	}
	return strings.Join(parts, ", ")
}
