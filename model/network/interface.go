// Package network declares the network interface entity.
package network

import (
	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/metadata"
)

const TypeInterface = "interface"

// Wildcard values accepted by Interface.SetAddressWildcard.
const (
	WildcardAny  = "any-address"
	WildcardIPv4 = "any-ipv4-address"
	WildcardIPv6 = "any-ipv6-address"
)

// Interface is a named network interface with its selection criteria.
// Criteria left false are not sent.
type Interface struct {
	Name            string `json:"name" yaml:"name"`
	InetAddress     string `json:"inetAddress,omitempty" yaml:"inetAddress,omitempty"`
	Nic             string `json:"nic,omitempty" yaml:"nic,omitempty"`
	NicMatch        string `json:"nicMatch,omitempty" yaml:"nicMatch,omitempty"`
	AnyAddress      bool   `json:"anyAddress,omitempty" yaml:"anyAddress,omitempty"`
	AnyIPv4Address  bool   `json:"anyIpv4Address,omitempty" yaml:"anyIpv4Address,omitempty"`
	AnyIPv6Address  bool   `json:"anyIpv6Address,omitempty" yaml:"anyIpv6Address,omitempty"`
	PublicAddress   bool   `json:"publicAddress,omitempty" yaml:"publicAddress,omitempty"`
	SiteLocal       bool   `json:"siteLocal,omitempty" yaml:"siteLocal,omitempty"`
	LinkLocal       bool   `json:"linkLocal,omitempty" yaml:"linkLocal,omitempty"`
	Up              bool   `json:"up,omitempty" yaml:"up,omitempty"`
	Virtual         bool   `json:"virtual,omitempty" yaml:"virtual,omitempty"`
	PointToPoint    bool   `json:"pointToPoint,omitempty" yaml:"pointToPoint,omitempty"`
	Multicast       bool   `json:"multicast,omitempty" yaml:"multicast,omitempty"`
	Loopback        bool   `json:"loopback,omitempty" yaml:"loopback,omitempty"`
	LoopbackAddress string `json:"loopbackAddress,omitempty" yaml:"loopbackAddress,omitempty"`
}

// AddressWildcard reports which wildcard criterion is set, or "".
func (i Interface) AddressWildcard() string {
	switch {
	case i.AnyAddress:
		return WildcardAny
	case i.AnyIPv4Address:
		return WildcardIPv4
	case i.AnyIPv6Address:
		return WildcardIPv6
	default:
		return ""
	}
}

// SetAddressWildcard selects one wildcard criterion and clears the others.
// Unknown values clear all three.
func (i *Interface) SetAddressWildcard(value string) {
	i.AnyAddress = value == WildcardAny
	i.AnyIPv4Address = value == WildcardIPv4
	i.AnyIPv6Address = value == WildcardIPv6
}

func InterfaceMetadata() metadata.EntityMetadata[Interface] {
	text := func(field string, attribute string, get func(*Interface) *string) metadata.Binding[Interface] {
		return metadata.String(field, attribute,
			func(i *Interface) string { return *get(i) },
			func(i *Interface, v string) { *get(i) = v }).AsOptional()
	}
	flag := func(field string, attribute string, get func(*Interface) *bool) metadata.Binding[Interface] {
		return metadata.Flag(field, attribute,
			func(i *Interface) bool { return *get(i) },
			func(i *Interface, v bool) { *get(i) = v })
	}

	return metadata.EntityMetadata[Interface]{
		Type:    TypeInterface,
		Address: address.MustParseTemplate("interface={name}"),
		Bindings: []metadata.Binding[Interface]{
			text("inetAddress", "inet-address", func(i *Interface) *string { return &i.InetAddress }),
			text("nic", "nic", func(i *Interface) *string { return &i.Nic }),
			text("nicMatch", "nic-match", func(i *Interface) *string { return &i.NicMatch }),
			flag("anyAddress", "any-address", func(i *Interface) *bool { return &i.AnyAddress }),
			flag("anyIpv4Address", "any-ipv4-address", func(i *Interface) *bool { return &i.AnyIPv4Address }),
			flag("anyIpv6Address", "any-ipv6-address", func(i *Interface) *bool { return &i.AnyIPv6Address }),
			flag("publicAddress", "public-address", func(i *Interface) *bool { return &i.PublicAddress }),
			flag("siteLocal", "site-local-address", func(i *Interface) *bool { return &i.SiteLocal }),
			flag("linkLocal", "link-local-address", func(i *Interface) *bool { return &i.LinkLocal }),
			flag("up", "up", func(i *Interface) *bool { return &i.Up }),
			flag("virtual", "virtual", func(i *Interface) *bool { return &i.Virtual }),
			flag("pointToPoint", "point-to-point", func(i *Interface) *bool { return &i.PointToPoint }),
			flag("multicast", "multicast", func(i *Interface) *bool { return &i.Multicast }),
			flag("loopback", "loopback", func(i *Interface) *bool { return &i.Loopback }),
			text("loopbackAddress", "loopback-address", func(i *Interface) *string { return &i.LoopbackAddress }),
		},
		Identify: func(i *Interface, names []string) { i.Name = names[len(names)-1] },
		Params:   func(i *Interface) []string { return []string{i.Name} },
	}
}

func Register(registry *metadata.Registry) error {
	return registry.Register(InterfaceMetadata())
}
