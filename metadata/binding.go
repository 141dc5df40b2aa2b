// Package metadata declares how entity fields map onto management
// attributes and where each entity type lives in the resource tree.
package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/tree"
)

type BindingType int

const (
	TypeString BindingType = iota + 1
	TypeBoolean
	TypeInteger
	TypeStringList
)

func (t BindingType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeStringList:
		return "stringList"
	default:
		return "unknown"
	}
}

func (t BindingType) IsValid() bool {
	switch t {
	case TypeString, TypeBoolean, TypeInteger, TypeStringList:
		return true
	default:
		return false
	}
}

// PropertyBinding maps one entity field onto one attribute. A TrueOnly
// boolean is either true or undefined on the wire.
type PropertyBinding struct {
	FieldName     string
	AttributeName string
	Type          BindingType
	Optional      bool
	TrueOnly      bool
}

// IsEmpty reports whether value counts as "not set" for this binding: nil,
// an empty string or an empty list.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	case *bool:
		return typed == nil
	case *int64:
		return typed == nil
	default:
		return false
	}
}

// Encode coerces a field value into an attribute node. Empty values, and
// false for a TrueOnly binding, encode to an undefined node.
func (b PropertyBinding) Encode(value any) (tree.Node, error) {
	if IsEmpty(value) {
		return tree.Node{}, nil
	}

	switch b.Type {
	case TypeString:
		text, err := coerceString(value)
		if err != nil {
			return tree.Node{}, b.coerceError(value, err)
		}
		return tree.StringValue(text), nil
	case TypeBoolean:
		flag, err := coerceBool(value)
		if err != nil {
			return tree.Node{}, b.coerceError(value, err)
		}
		if b.TrueOnly && !flag {
			return tree.Node{}, nil
		}
		return tree.BoolValue(flag), nil
	case TypeInteger:
		number, err := coerceInt(value)
		if err != nil {
			return tree.Node{}, b.coerceError(value, err)
		}
		return tree.IntValue(number), nil
	case TypeStringList:
		values, err := coerceStringList(value)
		if err != nil {
			return tree.Node{}, b.coerceError(value, err)
		}
		if len(values) == 0 {
			return tree.Node{}, nil
		}
		return tree.StringList(values...), nil
	default:
		return tree.Node{}, faults.NewTypedError(
			faults.MetadataError,
			fmt.Sprintf("binding %q has unknown type", b.FieldName),
			nil,
		)
	}
}

// Decode converts an attribute node into the Go value carried by the
// field: string, bool, int64 or []string.
func (b PropertyBinding) Decode(node tree.Node) (any, error) {
	switch b.Type {
	case TypeString:
		if text, ok := node.AsString(); ok {
			return text, nil
		}
	case TypeBoolean:
		if flag, ok := node.AsBool(); ok {
			return flag, nil
		}
	case TypeInteger:
		if number, ok := node.AsInt(); ok {
			return number, nil
		}
	case TypeStringList:
		if values, ok := node.AsStringList(); ok {
			return values, nil
		}
	}
	return nil, faults.NewTypedError(
		faults.DecodeTypeError,
		fmt.Sprintf("attribute %q: expected %s, got %s", b.AttributeName, b.Type, node.Kind()),
		nil,
	)
}

// Zero is the value a required field takes when its attribute is undefined.
func (b PropertyBinding) Zero() any {
	switch b.Type {
	case TypeString:
		return ""
	case TypeBoolean:
		return false
	case TypeInteger:
		return int64(0)
	case TypeStringList:
		return []string(nil)
	default:
		return nil
	}
}

func (b PropertyBinding) coerceError(value any, cause error) error {
	return faults.NewTypedError(
		faults.ValidationError,
		fmt.Sprintf("field %q: cannot use %T as %s", b.FieldName, value, b.Type),
		cause,
	)
}

func coerceString(value any) (string, error) {
	switch typed := value.(type) {
	case string:
		return typed, nil
	case fmt.Stringer:
		return typed.String(), nil
	case bool:
		return strconv.FormatBool(typed), nil
	case int:
		return strconv.Itoa(typed), nil
	case int64:
		return strconv.FormatInt(typed, 10), nil
	default:
		return "", fmt.Errorf("unsupported value")
	}
}

func coerceBool(value any) (bool, error) {
	switch typed := value.(type) {
	case bool:
		return typed, nil
	case *bool:
		return *typed, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(typed))
	default:
		return false, fmt.Errorf("unsupported value")
	}
}

func coerceInt(value any) (int64, error) {
	switch typed := value.(type) {
	case int:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case int64:
		return typed, nil
	case *int64:
		return *typed, nil
	case float64:
		if typed != math.Trunc(typed) || math.IsInf(typed, 0) {
			return 0, fmt.Errorf("not integral")
		}
		if typed >= math.MaxInt64 || typed < math.MinInt64 {
			return 0, fmt.Errorf("out of int64 range")
		}
		return int64(typed), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported value")
	}
}

func coerceStringList(value any) ([]string, error) {
	switch typed := value.(type) {
	case []string:
		return append([]string(nil), typed...), nil
	case []any:
		values := make([]string, 0, len(typed))
		for _, item := range typed {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item %T is not a string", item)
			}
			values = append(values, text)
		}
		return values, nil
	case string:
		return splitListText(typed), nil
	default:
		return nil, fmt.Errorf("unsupported value")
	}
}

// splitListText accepts the newline or comma separated form used by text
// inputs.
func splitListText(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ','
	})
	values := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
