package config

import "context"

// ContextStore edits the persisted catalog of named contexts.
type ContextStore interface {
	Create(ctx context.Context, cfg Context) error
	Update(ctx context.Context, cfg Context) error
	Delete(ctx context.Context, name string) error
	Rename(ctx context.Context, fromName string, toName string) error
	SetCurrent(ctx context.Context, name string) error
	List(ctx context.Context) ([]Context, error)
	GetCurrent(ctx context.Context) (Context, error)
}

// ContextResolver turns a selection into the effective context a runtime
// is built from: the named or current context with management overrides
// and defaults applied.
type ContextResolver interface {
	ResolveContext(ctx context.Context, selection ContextSelection) (Context, error)
	Validate(ctx context.Context, cfg Context) error
}

type ContextService interface {
	ContextStore
	ContextResolver
}
