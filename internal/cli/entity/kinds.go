package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/crmarques/mgmtbridge/adapter"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
	"github.com/crmarques/mgmtbridge/metadata"
	"github.com/crmarques/mgmtbridge/model/jvm"
	"github.com/crmarques/mgmtbridge/model/messaging"
	"github.com/crmarques/mgmtbridge/model/network"
	"github.com/crmarques/mgmtbridge/session"
)

// kind erases the entity type parameter so commands can pick an entity
// type by name.
type kind interface {
	Type() string
	Summary() string
	// Own is the number of trailing address parameters an entity of this
	// kind names itself.
	Own(registry *metadata.Registry) (int, error)
	List(ctx context.Context, s *session.Session, scope []string) (listing, error)
	Get(ctx context.Context, s *session.Session, params []string) (any, error)
	Create(ctx context.Context, s *session.Session, scope []string, names []string, fields map[string]any) (session.Result, error)
}

type listing struct {
	Items      any
	Identities [][]string
}

type typedKind[E any] struct {
	entityType string
	summary    string
}

func (k typedKind[E]) Type() string {
	return k.entityType
}

func (k typedKind[E]) Summary() string {
	return k.summary
}

func (k typedKind[E]) Own(registry *metadata.Registry) (int, error) {
	md, err := metadata.Lookup[E](registry, k.entityType)
	if err != nil {
		return 0, err
	}
	if md.Params == nil {
		return 0, nil
	}
	var zero E
	return len(md.Params(&zero)), nil
}

func (k typedKind[E]) List(ctx context.Context, s *session.Session, scope []string) (listing, error) {
	entityAdapter, err := adapter.For[E](s.Registry(), k.entityType)
	if err != nil {
		return listing{}, err
	}
	items, err := session.LoadList[E](ctx, s, k.entityType, scope...)
	if err != nil {
		return listing{}, err
	}

	identities := make([][]string, len(items))
	for idx, item := range items {
		identities[idx] = entityAdapter.Identity(item)
	}
	return listing{Items: items, Identities: identities}, nil
}

func (k typedKind[E]) Get(ctx context.Context, s *session.Session, params []string) (any, error) {
	return session.Load[E](ctx, s, k.entityType, params...)
}

// Create builds the entity from field values and adds it. Kinds naming
// more than one trailing parameter go through CreateUnderParent so a
// missing parent resource is added in the same composite.
func (k typedKind[E]) Create(ctx context.Context, s *session.Session, scope []string, names []string, fields map[string]any) (session.Result, error) {
	entity, err := k.build(s.Registry(), names, fields)
	if err != nil {
		return session.Result{}, err
	}
	if len(names) < 2 {
		return session.Create(ctx, s, k.entityType, scope, entity)
	}

	loaded, err := session.LoadList[E](ctx, s, k.entityType, scope...)
	if err != nil {
		return session.Result{}, err
	}
	return session.CreateUnderParent(ctx, s, k.entityType, scope, entity, loaded)
}

func (k typedKind[E]) build(registry *metadata.Registry, names []string, fields map[string]any) (E, error) {
	var zero E
	entityAdapter, err := adapter.For[E](registry, k.entityType)
	if err != nil {
		return zero, err
	}
	payload, err := adapter.EncodeChangeset(entityAdapter.Metadata(), adapter.ChangeSet(fields))
	if err != nil {
		return zero, err
	}
	entity, err := entityAdapter.Decode(payload)
	if err != nil {
		return zero, err
	}
	if identify := entityAdapter.Metadata().Identify; identify != nil {
		identify(&entity, names)
	}
	return entity, nil
}

var kinds = []kind{
	typedKind[messaging.Provider]{entityType: messaging.TypeProvider, summary: "messaging server settings"},
	typedKind[messaging.Queue]{entityType: messaging.TypeQueue, summary: "JMS queue"},
	typedKind[messaging.Topic]{entityType: messaging.TypeTopic, summary: "JMS topic"},
	typedKind[messaging.ConnectionFactory]{entityType: messaging.TypeConnectionFactory, summary: "JMS connection factory"},
	typedKind[messaging.SecurityPattern]{entityType: messaging.TypeSecurityPattern, summary: "role permissions of a security-setting pattern"},
	typedKind[messaging.AddressingPattern]{entityType: messaging.TypeAddressingPattern, summary: "address-setting pattern"},
	typedKind[network.Interface]{entityType: network.TypeInterface, summary: "network interface"},
	typedKind[jvm.Jvm]{entityType: jvm.TypeJvm, summary: "host JVM definition"},
}

func lookupKind(entityType string) (kind, error) {
	for _, candidate := range kinds {
		if candidate.Type() == entityType {
			return candidate, nil
		}
	}
	return nil, common.ValidationError(
		fmt.Sprintf("unknown entity type %q: use one of %s", entityType, strings.Join(kindNames(), ", ")),
		nil,
	)
}

func kindNames() []string {
	names := make([]string, len(kinds))
	for idx, candidate := range kinds {
		names[idx] = candidate.Type()
	}
	sort.Strings(names)
	return names
}

// checkFields rejects field names the entity type does not bind.
func checkFields(descriptor metadata.Descriptor, fields map[string]any) error {
	var unknown []string
	for field := range fields {
		if _, ok := metadata.FieldBinding(descriptor, field); !ok {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	known := make([]string, 0, len(descriptor.PropertyBindings()))
	for _, binding := range descriptor.PropertyBindings() {
		known = append(known, binding.FieldName)
	}
	return common.ValidationError(fmt.Sprintf(
		"%s has no field %s: known fields are %s",
		descriptor.EntityType(), strings.Join(unknown, ", "), strings.Join(known, ", "),
	), nil)
}
