package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

func (n Node) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	if err := n.encode(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (n Node) encode(buffer *bytes.Buffer) error {
	switch n.kind {
	case Undefined:
		buffer.WriteString("null")
	case String:
		encoded, err := json.Marshal(n.str)
		if err != nil {
			return err
		}
		buffer.Write(encoded)
	case Int:
		buffer.WriteString(strconv.FormatInt(n.num, 10))
	case Float:
		if math.IsNaN(n.flt) || math.IsInf(n.flt, 0) {
			return fmt.Errorf("tree: non-finite float %v", n.flt)
		}
		buffer.WriteString(strconv.FormatFloat(n.flt, 'g', -1, 64))
	case Boolean:
		buffer.WriteString(strconv.FormatBool(n.flag))
	case List:
		buffer.WriteByte('[')
		for idx, item := range n.items {
			if idx > 0 {
				buffer.WriteByte(',')
			}
			if err := item.encode(buffer); err != nil {
				return err
			}
		}
		buffer.WriteByte(']')
	case Object:
		buffer.WriteByte('{')
		for idx, prop := range n.props {
			if idx > 0 {
				buffer.WriteByte(',')
			}
			key, err := json.Marshal(prop.Name)
			if err != nil {
				return err
			}
			buffer.Write(key)
			buffer.WriteByte(':')
			if err := prop.Value.encode(buffer); err != nil {
				return err
			}
		}
		buffer.WriteByte('}')
	default:
		return fmt.Errorf("tree: cannot encode %s", n.kind)
	}
	return nil
}

func (n *Node) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

// Decode reads exactly one JSON value, keeping object member order.
// JSON null decodes to an undefined node.
func Decode(reader io.Reader) (Node, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()

	node, err := decodeValue(decoder)
	if err != nil {
		return Node{}, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return Node{}, errors.New("tree: trailing data after value")
	}
	return node, nil
}

func Parse(data []byte) (Node, error) {
	return Decode(bytes.NewReader(data))
}

func decodeValue(decoder *json.Decoder) (Node, error) {
	token, err := decoder.Token()
	if err != nil {
		return Node{}, err
	}
	return decodeToken(decoder, token)
}

func decodeToken(decoder *json.Decoder, token json.Token) (Node, error) {
	switch typed := token.(type) {
	case nil:
		return Node{}, nil
	case bool:
		return BoolValue(typed), nil
	case string:
		return StringValue(typed), nil
	case json.Number:
		return numberNode(typed)
	case json.Delim:
		switch typed {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeList(decoder)
		}
	}
	return Node{}, fmt.Errorf("tree: unexpected token %v", token)
}

func decodeObject(decoder *json.Decoder) (Node, error) {
	object := NewObject()
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return Node{}, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return Node{}, fmt.Errorf("tree: object key must be a string, got %v", keyToken)
		}
		value, err := decodeValue(decoder)
		if err != nil {
			return Node{}, err
		}
		object.Set(key, value)
	}
	if _, err := decoder.Token(); err != nil {
		return Node{}, err
	}
	return object, nil
}

func decodeList(decoder *json.Decoder) (Node, error) {
	list := NewList()
	for decoder.More() {
		value, err := decodeValue(decoder)
		if err != nil {
			return Node{}, err
		}
		list.items = append(list.items, value)
	}
	if _, err := decoder.Token(); err != nil {
		return Node{}, err
	}
	return list, nil
}

func numberNode(number json.Number) (Node, error) {
	if asInt, err := number.Int64(); err == nil {
		return IntValue(asInt), nil
	}
	asFloat, err := number.Float64()
	if err != nil {
		return Node{}, fmt.Errorf("tree: invalid number %q: %w", number.String(), err)
	}
	return FloatValue(asFloat), nil
}

// FromAny converts plain Go values (as produced by encoding/json or yaml
// decoding) into a node. Map members are sorted by key since Go maps carry
// no order.
func FromAny(value any) (Node, error) {
	switch typed := value.(type) {
	case nil:
		return Node{}, nil
	case Node:
		return typed, nil
	case bool:
		return BoolValue(typed), nil
	case string:
		return StringValue(typed), nil
	case int:
		return IntValue(int64(typed)), nil
	case int32:
		return IntValue(int64(typed)), nil
	case int64:
		return IntValue(typed), nil
	case uint32:
		return IntValue(int64(typed)), nil
	case float32:
		return FloatValue(float64(typed)), nil
	case float64:
		return FloatValue(typed), nil
	case json.Number:
		return numberNode(typed)
	case []string:
		return StringList(typed...), nil
	case []any:
		list := NewList()
		for _, item := range typed {
			converted, err := FromAny(item)
			if err != nil {
				return Node{}, err
			}
			list.items = append(list.items, converted)
		}
		return list, nil
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		object := NewObject()
		for _, key := range keys {
			converted, err := FromAny(typed[key])
			if err != nil {
				return Node{}, err
			}
			object.Set(key, converted)
		}
		return object, nil
	default:
		return Node{}, fmt.Errorf("tree: unsupported value type %T", value)
	}
}

// ToAny converts a node into plain Go values. Undefined becomes nil.
func (n Node) ToAny() any {
	switch n.kind {
	case String:
		return n.str
	case Int:
		return n.num
	case Float:
		return n.flt
	case Boolean:
		return n.flag
	case List:
		values := make([]any, len(n.items))
		for idx, item := range n.items {
			values[idx] = item.ToAny()
		}
		return values
	case Object:
		values := make(map[string]any, len(n.props))
		for _, prop := range n.props {
			values[prop.Name] = prop.Value.ToAny()
		}
		return values
	default:
		return nil
	}
}
