// Package tree holds the generic value exchanged with the management
// endpoint: an ordered, tagged, recursive node.
package tree

import (
	"math"
	"strconv"
)

type Kind int

const (
	Undefined Kind = iota
	Object
	List
	String
	Int
	Float
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case Object:
		return "object"
	case List:
		return "list"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Property is one named member of an object node.
type Property struct {
	Name  string
	Value Node
}

// Node is the zero-value-undefined tree value. Object members keep
// insertion order.
type Node struct {
	kind  Kind
	str   string
	num   int64
	flt   float64
	flag  bool
	props []Property
	items []Node
}

func StringValue(value string) Node {
	return Node{kind: String, str: value}
}

func IntValue(value int64) Node {
	return Node{kind: Int, num: value}
}

func FloatValue(value float64) Node {
	return Node{kind: Float, flt: value}
}

func BoolValue(value bool) Node {
	return Node{kind: Boolean, flag: value}
}

func NewObject() Node {
	return Node{kind: Object, props: []Property{}}
}

func NewList(items ...Node) Node {
	copied := make([]Node, len(items))
	copy(copied, items)
	return Node{kind: List, items: copied}
}

func StringList(values ...string) Node {
	items := make([]Node, len(values))
	for idx, value := range values {
		items[idx] = StringValue(value)
	}
	return Node{kind: List, items: items}
}

func (n Node) Kind() Kind {
	return n.kind
}

func (n Node) IsDefined() bool {
	return n.kind != Undefined
}

// Get returns the member named key, or an undefined node when n is not an
// object or has no such member.
func (n Node) Get(key string) Node {
	if n.kind != Object {
		return Node{}
	}
	for _, prop := range n.props {
		if prop.Name == key {
			return prop.Value
		}
	}
	return Node{}
}

// GetPath follows nested object members.
func (n Node) GetPath(keys ...string) Node {
	current := n
	for _, key := range keys {
		current = current.Get(key)
		if !current.IsDefined() {
			return Node{}
		}
	}
	return current
}

func (n Node) Has(key string) bool {
	if n.kind != Object {
		return false
	}
	for _, prop := range n.props {
		if prop.Name == key {
			return true
		}
	}
	return false
}

// HasDefined reports whether key exists and holds a defined value.
func (n Node) HasDefined(key string) bool {
	return n.Get(key).IsDefined()
}

// Set replaces the member in place or appends it. An undefined receiver
// becomes an empty object first.
func (n *Node) Set(key string, value Node) {
	if n.kind != Object {
		*n = NewObject()
	}
	for idx := range n.props {
		if n.props[idx].Name == key {
			n.props[idx].Value = value
			return
		}
	}
	n.props = append(n.props, Property{Name: key, Value: value})
}

func (n *Node) Delete(key string) {
	if n.kind != Object {
		return
	}
	for idx := range n.props {
		if n.props[idx].Name == key {
			n.props = append(n.props[:idx:idx], n.props[idx+1:]...)
			return
		}
	}
}

// Append adds an item to a list. An undefined receiver becomes an empty
// list first.
func (n *Node) Append(value Node) {
	if n.kind != List {
		*n = Node{kind: List}
	}
	n.items = append(n.items, value)
}

func (n Node) Keys() []string {
	if n.kind != Object {
		return nil
	}
	keys := make([]string, len(n.props))
	for idx, prop := range n.props {
		keys[idx] = prop.Name
	}
	return keys
}

func (n Node) Properties() []Property {
	if n.kind != Object {
		return nil
	}
	props := make([]Property, len(n.props))
	copy(props, n.props)
	return props
}

func (n Node) Items() []Node {
	if n.kind != List {
		return nil
	}
	items := make([]Node, len(n.items))
	copy(items, n.items)
	return items
}

func (n Node) Len() int {
	switch n.kind {
	case Object:
		return len(n.props)
	case List:
		return len(n.items)
	default:
		return 0
	}
}

func (n Node) AsString() (string, bool) {
	switch n.kind {
	case String:
		return n.str, true
	case Int:
		return strconv.FormatInt(n.num, 10), true
	case Float:
		return strconv.FormatFloat(n.flt, 'g', -1, 64), true
	case Boolean:
		return strconv.FormatBool(n.flag), true
	default:
		return "", false
	}
}

// AsBool accepts booleans and the strings "true"/"false".
func (n Node) AsBool() (bool, bool) {
	switch n.kind {
	case Boolean:
		return n.flag, true
	case String:
		parsed, err := strconv.ParseBool(n.str)
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

// AsInt accepts integers and integral floats.
func (n Node) AsInt() (int64, bool) {
	switch n.kind {
	case Int:
		return n.num, true
	case Float:
		if math.IsNaN(n.flt) || math.IsInf(n.flt, 0) || n.flt != math.Trunc(n.flt) {
			return 0, false
		}
		if n.flt >= math.MaxInt64 || n.flt < math.MinInt64 {
			return 0, false
		}
		return int64(n.flt), true
	default:
		return 0, false
	}
}

func (n Node) AsFloat() (float64, bool) {
	switch n.kind {
	case Int:
		return float64(n.num), true
	case Float:
		return n.flt, true
	default:
		return 0, false
	}
}

// AsStringList returns the items of a list of strings, in order.
func (n Node) AsStringList() ([]string, bool) {
	if n.kind != List {
		return nil, false
	}
	values := make([]string, 0, len(n.items))
	for _, item := range n.items {
		if item.kind != String {
			return nil, false
		}
		values = append(values, item.str)
	}
	return values, true
}

func (n Node) Clone() Node {
	clone := n
	if n.props != nil {
		clone.props = make([]Property, len(n.props))
		for idx, prop := range n.props {
			clone.props[idx] = Property{Name: prop.Name, Value: prop.Value.Clone()}
		}
	}
	if n.items != nil {
		clone.items = make([]Node, len(n.items))
		for idx, item := range n.items {
			clone.items[idx] = item.Clone()
		}
	}
	return clone
}

// Equal compares kind, scalar values and members. Object comparison is
// order sensitive.
func (n Node) Equal(other Node) bool {
	if n.kind != other.kind {
		return false
	}
	switch n.kind {
	case Undefined:
		return true
	case String:
		return n.str == other.str
	case Int:
		return n.num == other.num
	case Float:
		return n.flt == other.flt
	case Boolean:
		return n.flag == other.flag
	case List:
		if len(n.items) != len(other.items) {
			return false
		}
		for idx := range n.items {
			if !n.items[idx].Equal(other.items[idx]) {
				return false
			}
		}
		return true
	case Object:
		if len(n.props) != len(other.props) {
			return false
		}
		for idx := range n.props {
			if n.props[idx].Name != other.props[idx].Name {
				return false
			}
			if !n.props[idx].Value.Equal(other.props[idx].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (n Node) String() string {
	encoded, err := n.MarshalJSON()
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return string(encoded)
}
