// Package model assembles the registry of every known entity type.
package model

import (
	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/model/jvm"
	"github.com/crmarques/mgmtbridge/model/messaging"
	"github.com/crmarques/mgmtbridge/model/network"
)

// NewRegistry registers all entity types and freezes the registry.
// profile scopes subsystem entities; it is empty against a standalone
// server.
func NewRegistry(profile address.Address) (*metadata.Registry, error) {
	registry := metadata.NewRegistry()
	if err := messaging.Register(registry, profile); err != nil {
		return nil, err
	}
	if err := network.Register(registry); err != nil {
		return nil, err
	}
	if err := jvm.Register(registry); err != nil {
		return nil, err
	}
	registry.Freeze()
	return registry, nil
}

// ProfileAddress returns the base address for subsystem entities in a
// managed domain, or an empty address when profile is "".
func ProfileAddress(profile string) address.Address {
	if profile == "" {
		return nil
	}
	return address.Address{{Kind: "profile", Value: profile}}
}
