// Package memory implements an in-memory management model that executes
// operations the way a live endpoint does, including atomic composites.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/dispatch"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/operation"
	"github.com/crmarques/mgmtbridge/tree"
)

// Rejector lets tests fail a step on purpose. A non-empty return value is
// used as the failure description.
type Rejector func(step operation.Step) string

type Option func(*Model)

// WithRejector installs a rejector.
func WithRejector(rejector Rejector) Option {
	return func(m *Model) {
		m.rejector = rejector
	}
}

// WithReloadRequired marks every successful mutation as requiring a
// reload in its response headers.
func WithReloadRequired() Option {
	return func(m *Model) {
		m.reloadRequired = true
	}
}

// Model is a resource tree guarded by a mutex. The zero value is not
// usable; call New.
type Model struct {
	mu             sync.Mutex
	root           *resource
	journal        []operation.Operation
	rejector       Rejector
	reloadRequired bool
	unavailable    error
}

var _ dispatch.Dispatcher = (*Model)(nil)

func New(opts ...Option) *Model {
	m := &Model{root: newResource(tree.Node{})}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Seed creates the resource at addr, and any missing ancestor, with the
// given attributes.
func (m *Model) Seed(addr address.Address, attributes tree.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.root
	for _, segment := range addr {
		child := current.child(segment)
		if child == nil {
			child = newResource(tree.Node{})
			current.addChild(segment, child)
		}
		current = child
	}
	current.writeAll(attributes)
}

func (m *Model) SetRejector(rejector Rejector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejector = rejector
}

// SetUnavailable makes Execute fail with a transport error until it is
// called again with nil.
func (m *Model) SetUnavailable(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = err
}

func (m *Model) Exists(addr address.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root.find(addr) != nil
}

// Journal returns the operations executed so far, in order.
func (m *Model) Journal() []operation.Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.journal)
}

func (m *Model) Execute(ctx context.Context, op operation.Operation) (dispatch.Response, error) {
	if err := ctx.Err(); err != nil {
		return dispatch.Response{}, faults.NewTypedError(faults.TransportError, "request aborted", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable != nil {
		return dispatch.Response{}, faults.NewTypedError(faults.TransportError, "management endpoint unavailable", m.unavailable)
	}
	m.journal = append(m.journal, op)

	if !op.IsComposite() {
		steps := op.Steps()
		if len(steps) != 1 {
			return dispatch.FailureResponse("request has no step"), nil
		}
		result, failure := m.apply(m.root, steps[0])
		if failure != "" {
			return dispatch.FailureResponse(failure), nil
		}
		return m.success(result, isMutation(steps[0].Name)), nil
	}

	staged := m.root.clone()
	results := tree.NewObject()
	mutated := false
	for idx, step := range op.Steps() {
		result, failure := m.apply(staged, step)
		if failure != "" {
			response := dispatch.FailureResponse(fmt.Sprintf("operation step-%d failed: %s", idx+1, failure))
			return response, nil
		}
		stepResult := tree.NewObject()
		stepResult.Set("outcome", tree.StringValue(dispatch.OutcomeSuccess))
		if result.IsDefined() {
			stepResult.Set("result", result)
		}
		results.Set(fmt.Sprintf("step-%d", idx+1), stepResult)
		mutated = mutated || isMutation(step.Name)
	}
	m.root = staged
	return m.success(results, mutated), nil
}

func (m *Model) success(result tree.Node, mutated bool) dispatch.Response {
	response := dispatch.SuccessResponse(result)
	if mutated && m.reloadRequired {
		headers := tree.NewObject()
		headers.Set("operation-requires-reload", tree.BoolValue(true))
		headers.Set("process-state", tree.StringValue("reload-required"))
		response.Headers = headers
	}
	return response
}

func (m *Model) apply(root *resource, step operation.Step) (tree.Node, string) {
	if m.rejector != nil {
		if description := m.rejector(step); description != "" {
			return tree.Node{}, description
		}
	}

	switch step.Name {
	case operation.ReadResource:
		target := root.find(step.Address)
		if target == nil {
			return tree.Node{}, notFound(step.Address)
		}
		return target.render(step.Recursive), ""

	case operation.ReadChildrenResources:
		target := root.find(step.Address)
		if target == nil {
			return tree.Node{}, notFound(step.Address)
		}
		if step.ChildType == "" {
			return tree.Node{}, "child-type is required"
		}
		return target.renderChildren(step.ChildType, step.Recursive), ""

	case operation.Add:
		last, ok := step.Address.Last()
		if !ok {
			return tree.Node{}, "cannot add the root resource"
		}
		parent := root.find(step.Address.Parent())
		if parent == nil {
			return tree.Node{}, notFound(step.Address.Parent())
		}
		if parent.child(last) != nil {
			return tree.Node{}, fmt.Sprintf("duplicate resource %s", step.Address)
		}
		created := newResource(tree.Node{})
		created.writeAll(step.Attributes)
		parent.addChild(last, created)
		return tree.Node{}, ""

	case operation.Remove:
		last, ok := step.Address.Last()
		if !ok {
			return tree.Node{}, "cannot remove the root resource"
		}
		parent := root.find(step.Address.Parent())
		if parent == nil || parent.child(last) == nil {
			return tree.Node{}, notFound(step.Address)
		}
		parent.removeChild(last)
		return tree.Node{}, ""

	case operation.WriteAttribute:
		target := root.find(step.Address)
		if target == nil {
			return tree.Node{}, notFound(step.Address)
		}
		if step.Attributes.Len() == 0 {
			return tree.Node{}, "write-attribute requires at least one attribute"
		}
		target.writeAll(step.Attributes)
		return tree.Node{}, ""

	default:
		return tree.Node{}, fmt.Sprintf("unknown operation %q", step.Name)
	}
}

func isMutation(name string) bool {
	switch name {
	case operation.Add, operation.Remove, operation.WriteAttribute:
		return true
	default:
		return false
	}
}

func notFound(addr address.Address) string {
	return fmt.Sprintf("resource %s not found", addr)
}
