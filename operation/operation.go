// Package operation models management requests: single steps and
// composites, and their tree encoding.
package operation

import (
	"fmt"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/tree"
)

const (
	ReadResource          = "read-resource"
	ReadChildrenResources = "read-children-resources"
	Add                   = "add"
	Remove                = "remove"
	WriteAttribute        = "write-attribute"
	Composite             = "composite"
)

// Reserved request keys. Attributes never use these names.
const (
	KeyAddress   = "address"
	KeyOperation = "operation"
	KeyRecursive = "recursive"
	KeyChildType = "child-type"
	KeySteps     = "steps"
	KeyHeaders   = "operation-headers"
)

var reservedKeys = map[string]struct{}{
	KeyAddress:   {},
	KeyOperation: {},
	KeyRecursive: {},
	KeyChildType: {},
	KeySteps:     {},
	KeyHeaders:   {},
}

// Step is one addressed operation. Attributes is an object or undefined.
type Step struct {
	Address    address.Address
	Name       string
	Attributes tree.Node
	Recursive  bool
	ChildType  string
}

// Node encodes the step as a request tree with attributes flattened next
// to the address and operation name.
func (s Step) Node() tree.Node {
	node := tree.NewObject()
	node.Set(KeyAddress, s.Address.Node())
	node.Set(KeyOperation, tree.StringValue(s.Name))
	for _, attribute := range s.Attributes.Properties() {
		node.Set(attribute.Name, attribute.Value)
	}
	if s.Recursive {
		node.Set(KeyRecursive, tree.BoolValue(true))
	}
	if s.ChildType != "" {
		node.Set(KeyChildType, tree.StringValue(s.ChildType))
	}
	return node
}

// Operation is what gets dispatched: one step, or an ordered composite
// whose own address is always empty.
type Operation struct {
	steps     []Step
	composite bool
	headers   tree.Node
}

func Single(step Step) Operation {
	return Operation{steps: []Step{step}}
}

// NewComposite wraps steps, in order, as one composite request even when
// there is a single step.
func NewComposite(steps ...Step) Operation {
	return Operation{steps: append([]Step(nil), steps...), composite: true}
}

func (o Operation) IsComposite() bool {
	return o.composite
}

func (o Operation) Steps() []Step {
	return append([]Step(nil), o.steps...)
}

// Name returns the operation name put on the wire.
func (o Operation) Name() string {
	if o.composite {
		return Composite
	}
	if len(o.steps) == 0 {
		return ""
	}
	return o.steps[0].Name
}

// Address returns the request address; empty for a composite.
func (o Operation) Address() address.Address {
	if o.composite || len(o.steps) == 0 {
		return address.Address{}
	}
	return o.steps[0].Address
}

// WithHeader returns a copy carrying an operation header such as a request
// id. Headers travel under "operation-headers".
func (o Operation) WithHeader(name string, value tree.Node) Operation {
	headers := o.headers.Clone()
	if headers.Kind() != tree.Object {
		headers = tree.NewObject()
	}
	headers.Set(name, value)
	o.headers = headers
	return o
}

func (o Operation) Header(name string) tree.Node {
	return o.headers.Get(name)
}

func (o Operation) String() string {
	return fmt.Sprintf("%s %s", o.Name(), o.Address())
}

// Node encodes the request tree.
func (o Operation) Node() tree.Node {
	var node tree.Node
	if o.composite {
		node = tree.NewObject()
		node.Set(KeyAddress, tree.NewList())
		node.Set(KeyOperation, tree.StringValue(Composite))
		steps := tree.NewList()
		for _, step := range o.steps {
			steps.Append(step.Node())
		}
		node.Set(KeySteps, steps)
	} else if len(o.steps) == 1 {
		node = o.steps[0].Node()
	} else {
		node = tree.NewObject()
	}
	if o.headers.Len() > 0 {
		node.Set(KeyHeaders, o.headers.Clone())
	}
	return node
}

// Parse decodes a request tree back into an Operation. It is the inverse of
// Node and is used by receiving ends such as the in-memory model.
func Parse(node tree.Node) (Operation, error) {
	if node.Kind() != tree.Object {
		return Operation{}, validationError(fmt.Sprintf("request must be an object, got %s", node.Kind()), nil)
	}

	name, ok := node.Get(KeyOperation).AsString()
	if !ok || name == "" {
		return Operation{}, validationError("request has no operation name", nil)
	}

	var op Operation
	if name == Composite {
		steps := node.Get(KeySteps)
		if steps.Kind() != tree.List {
			return Operation{}, validationError("composite request has no steps list", nil)
		}
		parsed := make([]Step, 0, steps.Len())
		for idx, item := range steps.Items() {
			step, err := parseStep(item)
			if err != nil {
				return Operation{}, validationError(fmt.Sprintf("composite step %d", idx+1), err)
			}
			parsed = append(parsed, step)
		}
		op = NewComposite(parsed...)
	} else {
		step, err := parseStep(node)
		if err != nil {
			return Operation{}, err
		}
		op = Single(step)
	}

	if headers := node.Get(KeyHeaders); headers.Kind() == tree.Object {
		op.headers = headers.Clone()
	}
	return op, nil
}

func parseStep(node tree.Node) (Step, error) {
	if node.Kind() != tree.Object {
		return Step{}, validationError(fmt.Sprintf("step must be an object, got %s", node.Kind()), nil)
	}
	name, ok := node.Get(KeyOperation).AsString()
	if !ok || name == "" {
		return Step{}, validationError("step has no operation name", nil)
	}
	if name == Composite {
		return Step{}, validationError("nested composite requests are not supported", nil)
	}
	addr, err := address.FromNode(node.Get(KeyAddress))
	if err != nil {
		return Step{}, err
	}

	step := Step{Address: addr, Name: name}
	if recursive, ok := node.Get(KeyRecursive).AsBool(); ok {
		step.Recursive = recursive
	}
	if childType, ok := node.Get(KeyChildType).AsString(); ok {
		step.ChildType = childType
	}

	attributes := tree.NewObject()
	for _, property := range node.Properties() {
		if _, reserved := reservedKeys[property.Name]; reserved {
			continue
		}
		attributes.Set(property.Name, property.Value)
	}
	if attributes.Len() > 0 {
		step.Attributes = attributes
	}
	return step, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
