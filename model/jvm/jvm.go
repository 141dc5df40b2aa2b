// Package jvm declares the host JVM definition entity.
package jvm

import (
	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/metadata"
)

const TypeJvm = "jvm"

type Jvm struct {
	Host         string   `json:"host" yaml:"host"`
	Name         string   `json:"name" yaml:"name"`
	HeapSize     string   `json:"heapSize,omitempty" yaml:"heapSize,omitempty"`
	MaxHeapSize  string   `json:"maxHeapSize,omitempty" yaml:"maxHeapSize,omitempty"`
	PermGenSize  string   `json:"permGenSize,omitempty" yaml:"permGenSize,omitempty"`
	MaxPermGen   string   `json:"maxPermGen,omitempty" yaml:"maxPermGen,omitempty"`
	Options      []string `json:"options,omitempty" yaml:"options,omitempty"`
	DebugEnabled bool     `json:"debugEnabled,omitempty" yaml:"debugEnabled,omitempty"`
	DebugOptions string   `json:"debugOptions,omitempty" yaml:"debugOptions,omitempty"`
}

func JvmMetadata() metadata.EntityMetadata[Jvm] {
	size := func(field string, attribute string, get func(*Jvm) *string) metadata.Binding[Jvm] {
		return metadata.String(field, attribute,
			func(j *Jvm) string { return *get(j) },
			func(j *Jvm, v string) { *get(j) = v }).AsOptional()
	}

	return metadata.EntityMetadata[Jvm]{
		Type:    TypeJvm,
		Address: address.MustParseTemplate("host={host}/jvm={name}"),
		Bindings: []metadata.Binding[Jvm]{
			size("heapSize", "heap-size", func(j *Jvm) *string { return &j.HeapSize }),
			size("maxHeapSize", "max-heap-size", func(j *Jvm) *string { return &j.MaxHeapSize }),
			size("permGenSize", "permgen-size", func(j *Jvm) *string { return &j.PermGenSize }),
			size("maxPermGen", "max-permgen-size", func(j *Jvm) *string { return &j.MaxPermGen }),
			metadata.StringList("options", "jvm-options",
				func(j *Jvm) []string { return j.Options },
				func(j *Jvm, v []string) { j.Options = v }).AsOptional(),
			metadata.Flag("debugEnabled", "debug-enabled",
				func(j *Jvm) bool { return j.DebugEnabled },
				func(j *Jvm, v bool) { j.DebugEnabled = v }),
			size("debugOptions", "debug-options", func(j *Jvm) *string { return &j.DebugOptions }),
		},
		Identify: func(j *Jvm, names []string) {
			if len(names) >= 2 {
				j.Host = names[len(names)-2]
			}
			j.Name = names[len(names)-1]
		},
		Params: func(j *Jvm) []string { return []string{j.Host, j.Name} },
	}
}

func Register(registry *metadata.Registry) error {
	return registry.Register(JvmMetadata())
}
