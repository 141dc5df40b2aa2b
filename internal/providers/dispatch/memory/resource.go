package memory

import (
	"slices"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/tree"
)

// resource is one node of the model. Child kinds and names keep their
// insertion order.
type resource struct {
	attributes tree.Node
	kinds      []string
	children   map[string][]namedResource
}

type namedResource struct {
	name     string
	resource *resource
}

func newResource(attributes tree.Node) *resource {
	if attributes.Kind() != tree.Object {
		attributes = tree.NewObject()
	}
	return &resource{attributes: attributes, children: map[string][]namedResource{}}
}

func (r *resource) find(addr address.Address) *resource {
	current := r
	for _, segment := range addr {
		current = current.child(segment)
		if current == nil {
			return nil
		}
	}
	return current
}

func (r *resource) child(segment address.Segment) *resource {
	for _, entry := range r.children[segment.Kind] {
		if entry.name == segment.Value {
			return entry.resource
		}
	}
	return nil
}

func (r *resource) addChild(segment address.Segment, child *resource) {
	if _, known := r.children[segment.Kind]; !known {
		r.kinds = append(r.kinds, segment.Kind)
	}
	r.children[segment.Kind] = append(r.children[segment.Kind], namedResource{name: segment.Value, resource: child})
}

func (r *resource) removeChild(segment address.Segment) {
	r.children[segment.Kind] = slices.DeleteFunc(r.children[segment.Kind], func(entry namedResource) bool {
		return entry.name == segment.Value
	})
}

// writeAll sets every attribute of values; an undefined value removes the
// attribute.
func (r *resource) writeAll(values tree.Node) {
	for _, attribute := range values.Properties() {
		if !attribute.Value.IsDefined() {
			r.attributes.Delete(attribute.Name)
			continue
		}
		r.attributes.Set(attribute.Name, attribute.Value.Clone())
	}
}

// render returns the attributes, followed by each child kind. Without
// recursion children appear by name with undefined values.
func (r *resource) render(recursive bool) tree.Node {
	out := r.attributes.Clone()
	for _, kind := range r.kinds {
		if recursive {
			out.Set(kind, r.renderChildren(kind, true))
			continue
		}
		names := tree.NewObject()
		for _, entry := range r.children[kind] {
			names.Set(entry.name, tree.Node{})
		}
		out.Set(kind, names)
	}
	return out
}

func (r *resource) renderChildren(kind string, recursive bool) tree.Node {
	out := tree.NewObject()
	for _, entry := range r.children[kind] {
		if recursive {
			out.Set(entry.name, entry.resource.render(true))
			continue
		}
		out.Set(entry.name, entry.resource.attributes.Clone())
	}
	return out
}

func (r *resource) clone() *resource {
	out := &resource{
		attributes: r.attributes.Clone(),
		kinds:      slices.Clone(r.kinds),
		children:   make(map[string][]namedResource, len(r.children)),
	}
	for kind, entries := range r.children {
		copied := make([]namedResource, len(entries))
		for idx, entry := range entries {
			copied[idx] = namedResource{name: entry.name, resource: entry.resource.clone()}
		}
		out.children[kind] = copied
	}
	return out
}
