package memory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/tree"
)

// SeedDocument is the YAML form of an initial resource tree:
//
//	resources:
//	  - address: /
//	    attributes: {management-major-version: 1}
//	  - address: /subsystem=messaging/hornetq-server=default
type SeedDocument struct {
	Resources []SeedResource `yaml:"resources"`
}

type SeedResource struct {
	Address    string         `yaml:"address"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
}

// Load seeds m from a YAML seed document. Nothing is seeded when the
// document is invalid.
func (m *Model) Load(reader io.Reader) error {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var document SeedDocument
	if err := decoder.Decode(&document); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return faults.NewTypedError(faults.ConfigurationError, "invalid memory seed document", err)
	}

	type seeded struct {
		addr       address.Address
		attributes tree.Node
	}
	pending := make([]seeded, 0, len(document.Resources))
	for idx, item := range document.Resources {
		addr, err := address.Parse(item.Address)
		if err != nil {
			return faults.NewTypedError(
				faults.ConfigurationError,
				fmt.Sprintf("memory seed resource %d has an invalid address", idx),
				err,
			)
		}
		attributes := tree.NewObject()
		if len(item.Attributes) > 0 {
			attributes, err = tree.FromAny(item.Attributes)
			if err != nil {
				return faults.NewTypedError(
					faults.ConfigurationError,
					fmt.Sprintf("memory seed resource %q has unsupported attributes", addr.String()),
					err,
				)
			}
		}
		pending = append(pending, seeded{addr: addr, attributes: attributes})
	}

	for _, item := range pending {
		m.Seed(item.addr, item.attributes)
	}
	return nil
}

// LoadFile seeds m from the YAML document at path.
func (m *Model) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return faults.NewTypedError(
			faults.ConfigurationError,
			fmt.Sprintf("failed to read memory seed file %q", path),
			err,
		)
	}
	return m.Load(bytes.NewReader(data))
}
