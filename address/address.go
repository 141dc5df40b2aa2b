// Package address models management resource addresses and the
// parameterized templates that locate each entity type.
package address

import (
	"fmt"
	"strings"

	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/tree"
)

type Segment struct {
	Kind  string
	Value string
}

func (s Segment) String() string {
	return s.Kind + "=" + s.Value
}

// Address is an ordered list of segments. A prefix of an address names a
// containing resource; the empty address names the root.
type Address []Segment

func New(pairs ...string) (Address, error) {
	if len(pairs)%2 != 0 {
		return nil, validationError("address pairs must come in kind/value couples", nil)
	}
	out := make(Address, 0, len(pairs)/2)
	for idx := 0; idx < len(pairs); idx += 2 {
		out = append(out, Segment{Kind: pairs[idx], Value: pairs[idx+1]})
	}
	return out, nil
}

// Parse reads the textual form `/kind=value/kind=value`. The leading slash
// is optional and "/" or "" is the root address.
func Parse(text string) (Address, error) {
	trimmed := strings.Trim(strings.TrimSpace(text), "/")
	if trimmed == "" {
		return Address{}, nil
	}

	rawSegments := strings.Split(trimmed, "/")
	out := make(Address, 0, len(rawSegments))
	for _, raw := range rawSegments {
		kind, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(kind) == "" || strings.TrimSpace(value) == "" {
			return nil, validationError(fmt.Sprintf("address segment %q must be kind=value", raw), nil)
		}
		out = append(out, Segment{Kind: strings.TrimSpace(kind), Value: strings.TrimSpace(value)})
	}
	return out, nil
}

func (a Address) String() string {
	if len(a) == 0 {
		return "/"
	}
	var builder strings.Builder
	for _, segment := range a {
		builder.WriteByte('/')
		builder.WriteString(segment.String())
	}
	return builder.String()
}

// Append returns a new address; the receiver is never modified.
func (a Address) Append(kind string, value string) Address {
	out := make(Address, len(a), len(a)+1)
	copy(out, a)
	return append(out, Segment{Kind: kind, Value: value})
}

func (a Address) Concat(other Address) Address {
	out := make(Address, 0, len(a)+len(other))
	out = append(out, a...)
	return append(out, other...)
}

func (a Address) Parent() Address {
	if len(a) == 0 {
		return Address{}
	}
	out := make(Address, len(a)-1)
	copy(out, a[:len(a)-1])
	return out
}

func (a Address) Last() (Segment, bool) {
	if len(a) == 0 {
		return Segment{}, false
	}
	return a[len(a)-1], true
}

func (a Address) HasPrefix(prefix Address) bool {
	if len(prefix) > len(a) {
		return false
	}
	for idx := range prefix {
		if a[idx] != prefix[idx] {
			return false
		}
	}
	return true
}

func (a Address) Equal(other Address) bool {
	return len(a) == len(other) && a.HasPrefix(other)
}

// Node renders the wire shape [[kind,value],...]. The root address is an
// empty list.
func (a Address) Node() tree.Node {
	list := tree.NewList()
	for _, segment := range a {
		list.Append(tree.StringList(segment.Kind, segment.Value))
	}
	return list
}

// FromNode accepts both [[kind,value],...] and [{kind:value},...] shapes.
// An undefined node is the root address.
func FromNode(node tree.Node) (Address, error) {
	switch node.Kind() {
	case tree.Undefined:
		return Address{}, nil
	case tree.List:
	default:
		return nil, validationError(fmt.Sprintf("address must be a list, got %s", node.Kind()), nil)
	}

	out := make(Address, 0, node.Len())
	for _, item := range node.Items() {
		switch item.Kind() {
		case tree.List:
			pair, ok := item.AsStringList()
			if !ok || len(pair) != 2 {
				return nil, validationError("address pair must be [kind, value]", nil)
			}
			out = append(out, Segment{Kind: pair[0], Value: pair[1]})
		case tree.Object:
			for _, prop := range item.Properties() {
				value, ok := prop.Value.AsString()
				if !ok {
					return nil, validationError(fmt.Sprintf("address value for %q must be a string", prop.Name), nil)
				}
				out = append(out, Segment{Kind: prop.Name, Value: value})
			}
		default:
			return nil, validationError(fmt.Sprintf("address segment must be a pair, got %s", item.Kind()), nil)
		}
	}
	return out, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func arityError(message string) error {
	return faults.NewTypedError(faults.AddressArityError, message, nil)
}
