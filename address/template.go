package address

import (
	"fmt"
	"strings"
)

type templateSegment struct {
	kind        string
	value       string
	placeholder bool
}

// Template is an address whose values may be positional placeholders,
// written `{}` or `{name}` in the textual form. Placeholders are filled in
// order of appearance.
type Template struct {
	segments []templateSegment
}

func ParseTemplate(text string) (Template, error) {
	trimmed := strings.Trim(strings.TrimSpace(text), "/")
	if trimmed == "" {
		return Template{}, nil
	}

	rawSegments := strings.Split(trimmed, "/")
	segments := make([]templateSegment, 0, len(rawSegments))
	for _, raw := range rawSegments {
		kind, value, ok := strings.Cut(raw, "=")
		kind = strings.TrimSpace(kind)
		value = strings.TrimSpace(value)
		if !ok || kind == "" || value == "" {
			return Template{}, validationError(fmt.Sprintf("template segment %q must be kind=value", raw), nil)
		}
		if isPlaceholderToken(kind) {
			return Template{}, validationError(fmt.Sprintf("template segment %q must not use a placeholder kind", raw), nil)
		}
		segments = append(segments, templateSegment{
			kind:        kind,
			value:       value,
			placeholder: isPlaceholderToken(value),
		})
	}
	return Template{segments: segments}, nil
}

func MustParseTemplate(text string) Template {
	template, err := ParseTemplate(text)
	if err != nil {
		panic(err)
	}
	return template
}

func isPlaceholderToken(value string) bool {
	return len(value) >= 2 && strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}")
}

func (t Template) Placeholders() int {
	count := 0
	for _, segment := range t.segments {
		if segment.placeholder {
			count++
		}
	}
	return count
}

// PlaceholderNames lists the placeholder names in order; an anonymous
// `{}` placeholder is named after its segment kind.
func (t Template) PlaceholderNames() []string {
	names := make([]string, 0, len(t.segments))
	for _, segment := range t.segments {
		if !segment.placeholder {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(segment.value, "{"), "}")
		if name == "" {
			name = segment.kind
		}
		names = append(names, name)
	}
	return names
}

// Len is the number of segments.
func (t Template) Len() int {
	return len(t.segments)
}

// Kinds lists segment kinds in order.
func (t Template) Kinds() []string {
	kinds := make([]string, len(t.segments))
	for idx, segment := range t.segments {
		kinds[idx] = segment.kind
	}
	return kinds
}

// WithBase prepends a fixed address, such as a domain profile.
func (t Template) WithBase(base Address) Template {
	segments := make([]templateSegment, 0, len(base)+len(t.segments))
	for _, segment := range base {
		segments = append(segments, templateSegment{kind: segment.Kind, value: segment.Value})
	}
	segments = append(segments, t.segments...)
	return Template{segments: segments}
}

// Resolve fills every placeholder from params, left to right. The count
// must match exactly; nothing is resolved otherwise.
func (t Template) Resolve(params ...string) (Address, error) {
	expected := t.Placeholders()
	if len(params) != expected {
		return nil, arityError(fmt.Sprintf(
			"template %s expects %d parameters, got %d",
			t.String(), expected, len(params),
		))
	}

	out := make(Address, 0, len(t.segments))
	next := 0
	for _, segment := range t.segments {
		value := segment.value
		if segment.placeholder {
			value = params[next]
			next++
		}
		out = append(out, Segment{Kind: segment.kind, Value: value})
	}
	return out, nil
}

// ResolveCollection resolves the leading placeholders and returns the
// address of the resource holding the collection plus the child kinds
// still open. The open placeholders must be trailing and at least one must
// remain.
func (t Template) ResolveCollection(params ...string) (Address, []string, error) {
	expected := t.Placeholders()
	if len(params) >= expected {
		return nil, nil, arityError(fmt.Sprintf(
			"collection of %s expects fewer than %d parameters, got %d",
			t.String(), expected, len(params),
		))
	}

	prefix := make(Address, 0, len(t.segments))
	next := 0
	for idx, segment := range t.segments {
		if !segment.placeholder {
			prefix = append(prefix, Segment{Kind: segment.kind, Value: segment.value})
			continue
		}
		if next < len(params) {
			prefix = append(prefix, Segment{Kind: segment.kind, Value: params[next]})
			next++
			continue
		}

		childKinds := make([]string, 0, len(t.segments)-idx)
		for _, rest := range t.segments[idx:] {
			if !rest.placeholder {
				return nil, nil, validationError(fmt.Sprintf(
					"template %s has fixed segment %s after an open placeholder",
					t.String(), rest.kind,
				), nil)
			}
			childKinds = append(childKinds, rest.kind)
		}
		return prefix, childKinds, nil
	}

	return nil, nil, arityError(fmt.Sprintf("template %s has no open placeholder", t.String()))
}

func (t Template) String() string {
	if len(t.segments) == 0 {
		return "/"
	}
	var builder strings.Builder
	for _, segment := range t.segments {
		builder.WriteByte('/')
		builder.WriteString(segment.kind)
		builder.WriteByte('=')
		builder.WriteString(segment.value)
	}
	return builder.String()
}
