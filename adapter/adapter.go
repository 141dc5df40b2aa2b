// Package adapter converts between typed entities and attribute trees
// using the bindings declared in package metadata.
package adapter

import (
	"fmt"
	"slices"

	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/tree"
)

// ChangeSet maps field names to new values. It holds only the fields the
// user modified; an empty change-set means there is nothing to persist.
type ChangeSet map[string]any

func (c ChangeSet) IsEmpty() bool {
	return len(c) == 0
}

type Adapter[E any] struct {
	md metadata.EntityMetadata[E]
}

func New[E any](md metadata.EntityMetadata[E]) Adapter[E] {
	return Adapter[E]{md: md}
}

// For looks up the typed metadata of entityType in registry.
func For[E any](registry *metadata.Registry, entityType string) (Adapter[E], error) {
	md, err := metadata.Lookup[E](registry, entityType)
	if err != nil {
		return Adapter[E]{}, err
	}
	return New(md), nil
}

func (a Adapter[E]) Metadata() metadata.EntityMetadata[E] {
	return a.md
}

// Decode builds an entity from an attribute object. Missing optional
// attributes keep the field default, missing required ones get the zero
// value and unknown attributes are ignored.
func (a Adapter[E]) Decode(node tree.Node) (E, error) {
	var entity E
	if err := a.DecodeInto(&entity, node); err != nil {
		var zero E
		return zero, err
	}
	return entity, nil
}

func (a Adapter[E]) DecodeInto(entity *E, node tree.Node) error {
	if node.Kind() != tree.Object {
		return decodeTypeError(fmt.Sprintf("%s: expected object, got %s", a.md.Type, node.Kind()), nil)
	}

	for _, binding := range a.md.Bindings {
		attribute := node.Get(binding.AttributeName)
		if !attribute.IsDefined() {
			if !binding.Optional {
				binding.Set(entity, binding.Zero())
			}
			continue
		}

		value, err := binding.Decode(attribute)
		if err != nil {
			return decodeTypeError(a.md.Type, err)
		}
		binding.Set(entity, value)
	}
	return nil
}

// DecodeCollection decodes the children of a collection read. node holds
// the children of childKinds[0] keyed by name; deeper kinds are nested
// inside each child. The names met on the way down are passed to Identify.
func (a Adapter[E]) DecodeCollection(node tree.Node, childKinds []string) ([]E, error) {
	if len(childKinds) == 0 {
		return nil, decodeTypeError(a.md.Type+": collection needs at least one child kind", nil)
	}
	out := make([]E, 0, node.Len())
	if err := a.walkCollection(node, childKinds, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeChildren decodes the collection held under childKinds[0] of a
// recursive read of the parent resource.
func (a Adapter[E]) DecodeChildren(parent tree.Node, childKinds []string) ([]E, error) {
	if parent.Kind() != tree.Object {
		return nil, decodeTypeError(fmt.Sprintf("%s: expected parent object, got %s", a.md.Type, parent.Kind()), nil)
	}
	if len(childKinds) == 0 {
		return nil, decodeTypeError(a.md.Type+": collection needs at least one child kind", nil)
	}
	return a.DecodeCollection(parent.Get(childKinds[0]), childKinds)
}

func (a Adapter[E]) walkCollection(node tree.Node, kinds []string, names []string, out *[]E) error {
	switch node.Kind() {
	case tree.Undefined:
		return nil
	case tree.Object:
	default:
		return decodeTypeError(fmt.Sprintf("%s: %s children must be an object, got %s", a.md.Type, kinds[0], node.Kind()), nil)
	}

	for _, child := range node.Properties() {
		childNames := append(slices.Clone(names), child.Name)
		if len(kinds) > 1 {
			if child.Value.Kind() != tree.Object {
				return decodeTypeError(fmt.Sprintf("%s: %s %q must be an object", a.md.Type, kinds[0], child.Name), nil)
			}
			if err := a.walkCollection(child.Value.Get(kinds[1]), kinds[1:], childNames, out); err != nil {
				return err
			}
			continue
		}

		entity, err := a.Decode(child.Value)
		if err != nil {
			return err
		}
		if a.md.Identify != nil {
			a.md.Identify(&entity, childNames)
		}
		*out = append(*out, entity)
	}
	return nil
}

// EncodeNew builds the attribute payload of a creation request. Empty
// strings, empty lists and unset values are omitted, never sent empty.
func (a Adapter[E]) EncodeNew(entity E) (tree.Node, error) {
	payload := tree.NewObject()
	for _, binding := range a.md.Bindings {
		value := binding.Get(&entity)
		if metadata.IsEmpty(value) {
			continue
		}
		node, err := binding.Encode(value)
		if err != nil {
			return tree.Node{}, err
		}
		if node.IsDefined() {
			payload.Set(binding.AttributeName, node)
		}
	}
	return payload, nil
}

func (a Adapter[E]) EncodeChangeset(changes ChangeSet) (tree.Node, error) {
	return EncodeChangeset(a.md, changes)
}

// Diff returns the fields whose values differ between before and after.
func (a Adapter[E]) Diff(before E, after E) ChangeSet {
	changes := ChangeSet{}
	for _, binding := range a.md.Bindings {
		previous := binding.Get(&before)
		current := binding.Get(&after)
		if !sameValue(previous, current) {
			changes[binding.FieldName] = current
		}
	}
	return changes
}

// Identity returns the address parameters contributed by entity.
func (a Adapter[E]) Identity(entity E) []string {
	if a.md.Params == nil {
		return nil
	}
	return a.md.Params(&entity)
}

// EncodeChangeset emits one attribute per change-set key that matches a
// binding, in binding order. Unknown keys are dropped. A value cleared to
// empty is emitted undefined so the attribute gets undefined remotely.
// Callers must not dispatch anything for an empty result.
func EncodeChangeset(descriptor metadata.Descriptor, changes ChangeSet) (tree.Node, error) {
	payload := tree.NewObject()
	for _, binding := range descriptor.PropertyBindings() {
		value, changed := changes[binding.FieldName]
		if !changed {
			continue
		}
		node, err := binding.Encode(value)
		if err != nil {
			return tree.Node{}, err
		}
		payload.Set(binding.AttributeName, node)
	}
	return payload, nil
}

func sameValue(left any, right any) bool {
	if metadata.IsEmpty(left) && metadata.IsEmpty(right) {
		return true
	}
	leftList, leftIsList := left.([]string)
	rightList, rightIsList := right.([]string)
	if leftIsList || rightIsList {
		return leftIsList && rightIsList && slices.Equal(leftList, rightList)
	}
	return left == right
}

func decodeTypeError(message string, cause error) error {
	return faults.NewTypedError(faults.DecodeTypeError, message, cause)
}
