package session

import (
	"context"
	"slices"
	"sync"

	"github.com/crmarques/mgmtbridge/adapter"
	"github.com/crmarques/mgmtbridge/tree"
)

// Collection is the locally held list of one entity type under a scope. It
// is replaced wholesale whenever the scope is re-read.
type Collection[E any] struct {
	session     *Session
	adapter     adapter.Adapter[E]
	scope       Scope
	unsubscribe func()

	mu     sync.RWMutex
	items  []E
	loaded bool
}

// Bind creates a collection for entityType under scope and subscribes it
// to the session's reconciler. Call Close to detach it.
func Bind[E any](s *Session, entityType string, scope ...string) (*Collection[E], error) {
	entityAdapter, err := adapter.For[E](s.registry, entityType)
	if err != nil {
		return nil, err
	}

	c := &Collection[E]{
		session: s,
		adapter: entityAdapter,
		scope:   Scope{EntityType: entityType, Params: slices.Clone(scope)},
	}
	c.unsubscribe = s.reconciler.Subscribe(c.scope, c.replace)
	return c, nil
}

func (c *Collection[E]) replace(_ context.Context, result tree.Node, childKinds []string) error {
	var items []E
	if childKinds == nil {
		entity, err := c.adapter.Decode(result)
		if err != nil {
			return err
		}
		if identify := c.adapter.Metadata().Identify; identify != nil && len(c.scope.Params) > 0 {
			identify(&entity, c.scope.Params)
		}
		items = []E{entity}
	} else {
		decoded, err := c.adapter.DecodeCollection(result, childKinds)
		if err != nil {
			return err
		}
		items = decoded
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.loaded = true
	return nil
}

// Refresh re-reads the scope.
func (c *Collection[E]) Refresh(ctx context.Context) error {
	return c.session.reconciler.Reconcile(ctx, c.scope)
}

// Items returns a copy of the current list.
func (c *Collection[E]) Items() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *Collection[E]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Find returns the item whose own address names equal names.
func (c *Collection[E]) Find(names ...string) (E, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if slices.Equal(c.adapter.Identity(item), names) {
			return item, true
		}
	}
	var zero E
	return zero, false
}

func (c *Collection[E]) Create(ctx context.Context, entity E) (Result, error) {
	return Create(ctx, c.session, c.scope.EntityType, c.scope.Params, entity)
}

// CreateUnderParent creates entity, adding its parent resource first when
// no loaded item shares it.
func (c *Collection[E]) CreateUnderParent(ctx context.Context, entity E) (Result, error) {
	return CreateUnderParent(ctx, c.session, c.scope.EntityType, c.scope.Params, entity, c.Items())
}

func (c *Collection[E]) Save(ctx context.Context, entity E, changes adapter.ChangeSet) (Result, error) {
	return c.session.Save(ctx, c.scope.EntityType, c.scope.Params, c.adapter.Identity(entity), changes)
}

func (c *Collection[E]) Delete(ctx context.Context, entity E) (Result, error) {
	return c.session.Delete(ctx, c.scope.EntityType, c.scope.Params, c.adapter.Identity(entity))
}

func (c *Collection[E]) Close() {
	if c != nil && c.unsubscribe != nil {
		c.unsubscribe()
	}
}
