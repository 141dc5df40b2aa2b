package operation

import (
	"fmt"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/tree"
)

// Builder assembles operations for registered entity types. Every address
// it emits is resolved from a registered template.
type Builder struct {
	registry *metadata.Registry
}

func NewBuilder(registry *metadata.Registry) Builder {
	return Builder{registry: registry}
}

// Read builds a read-resource of one entity instance.
func (b Builder) Read(entityType string, recursive bool, params ...string) (Operation, error) {
	addr, err := b.resolve(entityType, params)
	if err != nil {
		return Operation{}, err
	}
	return Single(Step{Address: addr, Name: ReadResource, Recursive: recursive}), nil
}

// ReadChildren builds the read of a collection. params fill the leading
// placeholders; the open trailing ones name the collection levels, which are
// returned so the caller can decode the result. Nested levels are read
// recursively.
func (b Builder) ReadChildren(entityType string, params ...string) (Operation, []string, error) {
	descriptor, err := b.registry.Lookup(entityType)
	if err != nil {
		return Operation{}, nil, err
	}
	prefix, childKinds, err := descriptor.AddressTemplate().ResolveCollection(params...)
	if err != nil {
		return Operation{}, nil, err
	}
	step := Step{
		Address:   prefix,
		Name:      ReadChildrenResources,
		ChildType: childKinds[0],
		Recursive: len(childKinds) > 1,
	}
	return Single(step), childKinds, nil
}

// Add builds the creation of one entity instance. attributes is usually the
// output of the adapter's EncodeNew.
func (b Builder) Add(entityType string, attributes tree.Node, params ...string) (Operation, error) {
	addr, err := b.resolve(entityType, params)
	if err != nil {
		return Operation{}, err
	}
	return Single(AddStep(addr, attributes)), nil
}

// WriteAttributes batches every changed attribute into one write step. An
// empty payload is rejected: a write with no attributes is never built.
func (b Builder) WriteAttributes(entityType string, attributes tree.Node, params ...string) (Operation, error) {
	if attributes.Len() == 0 {
		return Operation{}, validationError(fmt.Sprintf("%s: refusing to build an empty write", entityType), nil)
	}
	addr, err := b.resolve(entityType, params)
	if err != nil {
		return Operation{}, err
	}
	return Single(Step{Address: addr, Name: WriteAttribute, Attributes: attributes.Clone()}), nil
}

func (b Builder) Remove(entityType string, params ...string) (Operation, error) {
	addr, err := b.resolve(entityType, params)
	if err != nil {
		return Operation{}, err
	}
	return Single(Step{Address: addr, Name: Remove}), nil
}

// CreateWithParent builds a composite that adds child, preceded by an
// attribute-less add of parent when parentExists is false. child must be
// addressed under parent.
func (b Builder) CreateWithParent(parent address.Address, parentExists bool, child address.Address, attributes tree.Node) (Operation, error) {
	if len(parent) == 0 || !child.HasPrefix(parent) || len(child) <= len(parent) {
		return Operation{}, validationError(fmt.Sprintf("%s is not addressed under %s", child, parent), nil)
	}

	steps := make([]Step, 0, 2)
	if !parentExists {
		steps = append(steps, AddStep(parent, tree.Node{}))
	}
	steps = append(steps, AddStep(child, attributes))
	return NewComposite(steps...), nil
}

// ParentAddress resolves the address of the parent resource of an entity
// type, dropping the last template segment.
func (b Builder) ParentAddress(entityType string, params ...string) (address.Address, error) {
	addr, err := b.resolve(entityType, params)
	if err != nil {
		return nil, err
	}
	return addr.Parent(), nil
}

func (b Builder) Resolve(entityType string, params ...string) (address.Address, error) {
	return b.resolve(entityType, params)
}

func (b Builder) resolve(entityType string, params []string) (address.Address, error) {
	if b.registry == nil {
		return nil, faults.NewTypedError(faults.InternalError, "operation builder has no registry", nil)
	}
	descriptor, err := b.registry.Lookup(entityType)
	if err != nil {
		return nil, err
	}
	return descriptor.AddressTemplate().Resolve(params...)
}

func AddStep(addr address.Address, attributes tree.Node) Step {
	step := Step{Address: addr, Name: Add}
	if attributes.Len() > 0 {
		step.Attributes = attributes.Clone()
	}
	return step
}
