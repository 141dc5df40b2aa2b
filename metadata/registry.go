package metadata

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/crmarques/mgmtbridge/faults"
)

// Registry maps entity types to their metadata. Entries are registered at
// startup; after Freeze the registry is read-only and lookups take no lock.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Descriptor
	frozen  atomic.Bool
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]Descriptor{}}
}

func (r *Registry) Register(descriptor Descriptor) error {
	if descriptor == nil {
		return metadataError("descriptor must not be nil")
	}
	if err := descriptor.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return metadataError(fmt.Sprintf("registry is frozen; cannot register %q", descriptor.EntityType()))
	}
	if _, exists := r.entries[descriptor.EntityType()]; exists {
		return metadataError(fmt.Sprintf("entity type %q is already registered", descriptor.EntityType()))
	}
	r.entries[descriptor.EntityType()] = descriptor
	return nil
}

// Freeze ends registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

func (r *Registry) Lookup(entityType string) (Descriptor, error) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	descriptor, exists := r.entries[entityType]
	if !exists {
		return nil, faults.NewTypedError(
			faults.NotFoundError,
			fmt.Sprintf("entity type %q is not registered", entityType),
			nil,
		)
	}
	return descriptor, nil
}

// Types returns registered entity types in sorted order.
func (r *Registry) Types() []string {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	types := make([]string, 0, len(r.entries))
	for entityType := range r.entries {
		types = append(types, entityType)
	}
	sort.Strings(types)
	return types
}

// Lookup returns the typed metadata of entityType. It fails when the type
// was registered for a different Go entity type.
func Lookup[E any](r *Registry, entityType string) (EntityMetadata[E], error) {
	descriptor, err := r.Lookup(entityType)
	if err != nil {
		return EntityMetadata[E]{}, err
	}
	typed, ok := descriptor.(EntityMetadata[E])
	if !ok {
		var zero E
		return EntityMetadata[E]{}, metadataError(fmt.Sprintf(
			"entity type %q is not bound to %T", entityType, zero,
		))
	}
	return typed, nil
}
