package metadata

import (
	"fmt"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/faults"
)

// Binding is a PropertyBinding with typed accessors for entity E. Get
// returns nil for an unset optional field.
type Binding[E any] struct {
	PropertyBinding
	Get func(*E) any
	Set func(*E, any)
}

// AsOptional returns a copy of the binding marked optional.
func (b Binding[E]) AsOptional() Binding[E] {
	b.Optional = true
	return b
}

func String[E any](field string, attribute string, get func(*E) string, set func(*E, string)) Binding[E] {
	return Binding[E]{
		PropertyBinding: PropertyBinding{FieldName: field, AttributeName: attribute, Type: TypeString},
		Get:             func(e *E) any { return get(e) },
		Set: func(e *E, value any) {
			text, _ := value.(string)
			set(e, text)
		},
	}
}

func Bool[E any](field string, attribute string, get func(*E) bool, set func(*E, bool)) Binding[E] {
	return Binding[E]{
		PropertyBinding: PropertyBinding{FieldName: field, AttributeName: attribute, Type: TypeBoolean},
		Get:             func(e *E) any { return get(e) },
		Set: func(e *E, value any) {
			flag, _ := value.(bool)
			set(e, flag)
		},
	}
}

// OptionalBool binds a *bool field; nil means unset.
func OptionalBool[E any](field string, attribute string, get func(*E) *bool, set func(*E, *bool)) Binding[E] {
	return Binding[E]{
		PropertyBinding: PropertyBinding{FieldName: field, AttributeName: attribute, Type: TypeBoolean, Optional: true},
		Get: func(e *E) any {
			if value := get(e); value != nil {
				return *value
			}
			return nil
		},
		Set: func(e *E, value any) {
			flag, ok := value.(bool)
			if !ok {
				set(e, nil)
				return
			}
			set(e, &flag)
		},
	}
}

func Int[E any](field string, attribute string, get func(*E) int64, set func(*E, int64)) Binding[E] {
	return Binding[E]{
		PropertyBinding: PropertyBinding{FieldName: field, AttributeName: attribute, Type: TypeInteger},
		Get:             func(e *E) any { return get(e) },
		Set: func(e *E, value any) {
			number, _ := value.(int64)
			set(e, number)
		},
	}
}

// OptionalInt binds a *int64 field; nil means unset.
func OptionalInt[E any](field string, attribute string, get func(*E) *int64, set func(*E, *int64)) Binding[E] {
	return Binding[E]{
		PropertyBinding: PropertyBinding{FieldName: field, AttributeName: attribute, Type: TypeInteger, Optional: true},
		Get: func(e *E) any {
			if value := get(e); value != nil {
				return *value
			}
			return nil
		},
		Set: func(e *E, value any) {
			number, ok := value.(int64)
			if !ok {
				set(e, nil)
				return
			}
			set(e, &number)
		},
	}
}

func StringList[E any](field string, attribute string, get func(*E) []string, set func(*E, []string)) Binding[E] {
	return Binding[E]{
		PropertyBinding: PropertyBinding{FieldName: field, AttributeName: attribute, Type: TypeStringList},
		Get: func(e *E) any {
			if values := get(e); len(values) > 0 {
				return values
			}
			return nil
		},
		Set: func(e *E, value any) {
			values, _ := value.([]string)
			set(e, values)
		},
	}
}

// Descriptor is the type-erased view of an entity type's metadata, enough
// to build addresses and change-set payloads.
type Descriptor interface {
	EntityType() string
	AddressTemplate() address.Template
	PropertyBindings() []PropertyBinding
	Validate() error
}

// EntityMetadata describes entity type E. Identify stamps the names taken
// from the trailing open address segments of a collection read onto a
// decoded entity; Params returns the address parameters the entity itself
// contributes (its trailing names) when it is created or removed.
type EntityMetadata[E any] struct {
	Type     string
	Address  address.Template
	Bindings []Binding[E]
	Identify func(entity *E, names []string)
	Params   func(entity *E) []string
}

var _ Descriptor = EntityMetadata[struct{}]{}

func (m EntityMetadata[E]) EntityType() string {
	return m.Type
}

func (m EntityMetadata[E]) AddressTemplate() address.Template {
	return m.Address
}

func (m EntityMetadata[E]) PropertyBindings() []PropertyBinding {
	out := make([]PropertyBinding, len(m.Bindings))
	for idx, binding := range m.Bindings {
		out[idx] = binding.PropertyBinding
	}
	return out
}

// Validate checks the binding table: unique field and attribute names,
// known types and accessors present.
func (m EntityMetadata[E]) Validate() error {
	if m.Type == "" {
		return metadataError("entity type must not be empty")
	}
	if m.Address.Len() == 0 {
		return metadataError(fmt.Sprintf("entity type %q has no address template", m.Type))
	}

	fields := make(map[string]struct{}, len(m.Bindings))
	attributes := make(map[string]struct{}, len(m.Bindings))
	for _, binding := range m.Bindings {
		if binding.FieldName == "" || binding.AttributeName == "" {
			return metadataError(fmt.Sprintf("entity type %q has a binding without field or attribute name", m.Type))
		}
		if !binding.Type.IsValid() {
			return metadataError(fmt.Sprintf("entity type %q field %q has unknown type", m.Type, binding.FieldName))
		}
		if binding.Get == nil || binding.Set == nil {
			return metadataError(fmt.Sprintf("entity type %q field %q has no accessors", m.Type, binding.FieldName))
		}
		if _, exists := fields[binding.FieldName]; exists {
			return metadataError(fmt.Sprintf("entity type %q declares field %q twice", m.Type, binding.FieldName))
		}
		if _, exists := attributes[binding.AttributeName]; exists {
			return metadataError(fmt.Sprintf("entity type %q declares attribute %q twice", m.Type, binding.AttributeName))
		}
		fields[binding.FieldName] = struct{}{}
		attributes[binding.AttributeName] = struct{}{}
	}
	return nil
}

// FieldBinding finds the binding declared for field.
func FieldBinding(d Descriptor, field string) (PropertyBinding, bool) {
	for _, binding := range d.PropertyBindings() {
		if binding.FieldName == field {
			return binding, true
		}
	}
	return PropertyBinding{}, false
}

func metadataError(message string) error {
	return faults.NewTypedError(faults.MetadataError, message, nil)
}

// Flag binds a boolean attribute that is either true or undefined; false
// counts as unset and is never sent, in a creation payload or a change-set.
func Flag[E any](field string, attribute string, get func(*E) bool, set func(*E, bool)) Binding[E] {
	return Binding[E]{
		PropertyBinding: PropertyBinding{FieldName: field, AttributeName: attribute, Type: TypeBoolean, Optional: true, TrueOnly: true},
		Get: func(e *E) any {
			if get(e) {
				return true
			}
			return nil
		},
		Set: func(e *E, value any) {
			flag, _ := value.(bool)
			set(e, flag)
		},
	}
}
