// Package credentials keeps the secret values referenced from management
// auth settings out of the context catalog.
package credentials

import (
	"context"
)

// Store holds credential values by key. Keys are slash separated paths.
type Store interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, key string, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// LookupFunc returns the value stored under key.
type LookupFunc func(ctx context.Context, key string) (string, error)
