package messaging

import (
	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/metadata"
)

const serverTemplate = "subsystem=messaging/hornetq-server={server}"

// entriesBinding maps a single JNDI name onto the "entries" list attribute.
// Only the first entry is kept on decode.
func entriesBinding[E any](get func(*E) string, set func(*E, string)) metadata.Binding[E] {
	return metadata.StringList("jndiName", "entries",
		func(e *E) []string {
			if name := get(e); name != "" {
				return []string{name}
			}
			return nil
		},
		func(e *E, values []string) {
			if len(values) == 0 {
				set(e, "")
				return
			}
			set(e, values[0])
		},
	)
}

func ProviderMetadata(base address.Address) metadata.EntityMetadata[Provider] {
	return metadata.EntityMetadata[Provider]{
		Type:    TypeProvider,
		Address: address.MustParseTemplate(serverTemplate).WithBase(base),
		Bindings: []metadata.Binding[Provider]{
			metadata.Bool("persistenceEnabled", "persistence-enabled",
				func(p *Provider) bool { return p.PersistenceEnabled },
				func(p *Provider, v bool) { p.PersistenceEnabled = v }),
			metadata.Bool("securityEnabled", "security-enabled",
				func(p *Provider) bool { return p.SecurityEnabled },
				func(p *Provider, v bool) { p.SecurityEnabled = v }),
			metadata.Bool("messageCounterEnabled", "message-counter-enabled",
				func(p *Provider) bool { return p.MessageCounterEnabled },
				func(p *Provider, v bool) { p.MessageCounterEnabled = v }),
			metadata.String("clusterUser", "cluster-user",
				func(p *Provider) string { return p.ClusterUser },
				func(p *Provider, v string) { p.ClusterUser = v }).AsOptional(),
			metadata.String("clusterPassword", "cluster-password",
				func(p *Provider) string { return p.ClusterPassword },
				func(p *Provider, v string) { p.ClusterPassword = v }).AsOptional(),
			metadata.String("journalType", "journal-type",
				func(p *Provider) string { return p.JournalType },
				func(p *Provider, v string) { p.JournalType = v }).AsOptional(),
		},
		Identify: func(p *Provider, names []string) { p.Name = names[len(names)-1] },
		Params:   func(p *Provider) []string { return []string{p.Name} },
	}
}

func QueueMetadata(base address.Address) metadata.EntityMetadata[Queue] {
	return metadata.EntityMetadata[Queue]{
		Type:    TypeQueue,
		Address: address.MustParseTemplate(serverTemplate + "/jms-queue={name}").WithBase(base),
		Bindings: []metadata.Binding[Queue]{
			entriesBinding(
				func(q *Queue) string { return q.JndiName },
				func(q *Queue, v string) { q.JndiName = v }),
			metadata.Bool("durable", "durable",
				func(q *Queue) bool { return q.Durable },
				func(q *Queue, v bool) { q.Durable = v }),
			metadata.String("selector", "selector",
				func(q *Queue) string { return q.Selector },
				func(q *Queue, v string) { q.Selector = v }).AsOptional(),
		},
		Identify: func(q *Queue, names []string) { q.Name = names[len(names)-1] },
		Params:   func(q *Queue) []string { return []string{q.Name} },
	}
}

func TopicMetadata(base address.Address) metadata.EntityMetadata[Topic] {
	return metadata.EntityMetadata[Topic]{
		Type:    TypeTopic,
		Address: address.MustParseTemplate(serverTemplate + "/jms-topic={name}").WithBase(base),
		Bindings: []metadata.Binding[Topic]{
			entriesBinding(
				func(t *Topic) string { return t.JndiName },
				func(t *Topic, v string) { t.JndiName = v }),
		},
		Identify: func(t *Topic, names []string) { t.Name = names[len(names)-1] },
		Params:   func(t *Topic) []string { return []string{t.Name} },
	}
}

func ConnectionFactoryMetadata(base address.Address) metadata.EntityMetadata[ConnectionFactory] {
	return metadata.EntityMetadata[ConnectionFactory]{
		Type:    TypeConnectionFactory,
		Address: address.MustParseTemplate(serverTemplate + "/connection-factory={name}").WithBase(base),
		Bindings: []metadata.Binding[ConnectionFactory]{
			entriesBinding(
				func(f *ConnectionFactory) string { return f.JndiName },
				func(f *ConnectionFactory, v string) { f.JndiName = v }),
		},
		Identify: func(f *ConnectionFactory, names []string) { f.Name = names[len(names)-1] },
		Params:   func(f *ConnectionFactory) []string { return []string{f.Name} },
	}
}

func SecurityPatternMetadata(base address.Address) metadata.EntityMetadata[SecurityPattern] {
	flag := func(field string, attribute string, get func(*SecurityPattern) *bool) metadata.Binding[SecurityPattern] {
		return metadata.Bool(field, attribute,
			func(s *SecurityPattern) bool { return *get(s) },
			func(s *SecurityPattern, v bool) { *get(s) = v })
	}

	return metadata.EntityMetadata[SecurityPattern]{
		Type:    TypeSecurityPattern,
		Address: address.MustParseTemplate(serverTemplate + "/security-setting={pattern}/role={role}").WithBase(base),
		Bindings: []metadata.Binding[SecurityPattern]{
			flag("send", "send", func(s *SecurityPattern) *bool { return &s.Send }),
			flag("consume", "consume", func(s *SecurityPattern) *bool { return &s.Consume }),
			flag("createDurableQueue", "create-durable-queue", func(s *SecurityPattern) *bool { return &s.CreateDurableQueue }),
			flag("deleteDurableQueue", "delete-durable-queue", func(s *SecurityPattern) *bool { return &s.DeleteDurableQueue }),
			flag("createNonDurableQueue", "create-non-durable-queue", func(s *SecurityPattern) *bool { return &s.CreateNonDurableQueue }),
			flag("deleteNonDurableQueue", "delete-non-durable-queue", func(s *SecurityPattern) *bool { return &s.DeleteNonDurableQueue }),
			flag("manage", "manage", func(s *SecurityPattern) *bool { return &s.Manage }),
		},
		Identify: func(s *SecurityPattern, names []string) {
			if len(names) >= 2 {
				s.Pattern = names[len(names)-2]
			}
			s.Role = names[len(names)-1]
		},
		Params: func(s *SecurityPattern) []string { return []string{s.Pattern, s.Role} },
	}
}

func AddressingPatternMetadata(base address.Address) metadata.EntityMetadata[AddressingPattern] {
	return metadata.EntityMetadata[AddressingPattern]{
		Type:    TypeAddressingPattern,
		Address: address.MustParseTemplate(serverTemplate + "/address-setting={pattern}").WithBase(base),
		Bindings: []metadata.Binding[AddressingPattern]{
			metadata.String("deadLetterQueue", "dead-letter-address",
				func(a *AddressingPattern) string { return a.DeadLetterQueue },
				func(a *AddressingPattern, v string) { a.DeadLetterQueue = v }).AsOptional(),
			metadata.String("expiryQueue", "expiry-address",
				func(a *AddressingPattern) string { return a.ExpiryQueue },
				func(a *AddressingPattern, v string) { a.ExpiryQueue = v }).AsOptional(),
			metadata.OptionalInt("maxDelivery", "max-delivery-attempts",
				func(a *AddressingPattern) *int64 { return a.MaxDelivery },
				func(a *AddressingPattern, v *int64) { a.MaxDelivery = v }),
			metadata.OptionalInt("redeliveryDelay", "redelivery-delay",
				func(a *AddressingPattern) *int64 { return a.RedeliveryDelay },
				func(a *AddressingPattern, v *int64) { a.RedeliveryDelay = v }),
		},
		Identify: func(a *AddressingPattern, names []string) { a.Pattern = names[len(names)-1] },
		Params:   func(a *AddressingPattern) []string { return []string{a.Pattern} },
	}
}

// Register adds the messaging entity types to registry, scoped under base
// (empty in standalone mode, the profile address in domain mode).
func Register(registry *metadata.Registry, base address.Address) error {
	descriptors := []metadata.Descriptor{
		ProviderMetadata(base),
		QueueMetadata(base),
		TopicMetadata(base),
		ConnectionFactoryMetadata(base),
		SecurityPatternMetadata(base),
		AddressingPatternMetadata(base),
	}
	for _, descriptor := range descriptors {
		if err := registry.Register(descriptor); err != nil {
			return err
		}
	}
	return nil
}
