package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/internal/providers/shared/securefile"
)

var _ config.ContextService = (*Catalog)(nil)

// Catalog keeps the context catalog in one YAML file. Every change is a
// locked read-modify-write that replaces the file atomically with
// owner-only permissions.
type Catalog struct {
	explicitPath string
	mu           sync.Mutex
}

func NewCatalog(path string) *Catalog {
	return &Catalog{explicitPath: path}
}

// Path returns the resolved catalog location.
func (c *Catalog) Path() (string, error) {
	return resolveCatalogPath(c.explicitPath)
}

func (c *Catalog) Create(_ context.Context, cfg config.Context) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	return c.update(func(catalog *config.ContextCatalog) error {
		if indexOf(catalog.Contexts, cfg.Name) >= 0 {
			return validationError(fmt.Sprintf("context %q already exists", cfg.Name), nil)
		}
		catalog.Contexts = append(catalog.Contexts, cfg)
		if catalog.CurrentCtx == "" {
			catalog.CurrentCtx = cfg.Name
		}
		return nil
	})
}

func (c *Catalog) Update(_ context.Context, cfg config.Context) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	return c.update(func(catalog *config.ContextCatalog) error {
		idx, err := mustFind(catalog, cfg.Name)
		if err != nil {
			return err
		}
		catalog.Contexts[idx] = cfg
		return nil
	})
}

// Delete removes a context. When it was current, the first remaining
// context becomes current.
func (c *Catalog) Delete(_ context.Context, name string) error {
	return c.update(func(catalog *config.ContextCatalog) error {
		idx, err := mustFind(catalog, name)
		if err != nil {
			return err
		}
		catalog.Contexts = slices.Delete(catalog.Contexts, idx, idx+1)
		if catalog.CurrentCtx == name {
			catalog.CurrentCtx = ""
			if len(catalog.Contexts) > 0 {
				catalog.CurrentCtx = catalog.Contexts[0].Name
			}
		}
		return nil
	})
}

func (c *Catalog) Rename(_ context.Context, fromName string, toName string) error {
	if toName == "" {
		return validationError("context name must not be empty", nil)
	}
	return c.update(func(catalog *config.ContextCatalog) error {
		idx, err := mustFind(catalog, fromName)
		if err != nil {
			return err
		}
		if indexOf(catalog.Contexts, toName) >= 0 {
			return validationError(fmt.Sprintf("context %q already exists", toName), nil)
		}
		catalog.Contexts[idx].Name = toName
		if catalog.CurrentCtx == fromName {
			catalog.CurrentCtx = toName
		}
		return nil
	})
}

func (c *Catalog) SetCurrent(_ context.Context, name string) error {
	return c.update(func(catalog *config.ContextCatalog) error {
		if _, err := mustFind(catalog, name); err != nil {
			return err
		}
		catalog.CurrentCtx = name
		return nil
	})
}

func (c *Catalog) List(_ context.Context) ([]config.Context, error) {
	catalog, err := c.read()
	if err != nil {
		return nil, err
	}
	return slices.Clone(catalog.Contexts), nil
}

func (c *Catalog) GetCurrent(_ context.Context) (config.Context, error) {
	catalog, err := c.read()
	if err != nil {
		return config.Context{}, err
	}
	return current(catalog, "")
}

// ResolveContext picks the selected (or current) context, applies the
// selection overrides and defaults, and validates the result.
func (c *Catalog) ResolveContext(_ context.Context, selection config.ContextSelection) (config.Context, error) {
	catalog, err := c.read()
	if err != nil {
		return config.Context{}, err
	}
	selected, err := current(catalog, selection.Name)
	if err != nil {
		return config.Context{}, err
	}

	resolved, err := applyOverrides(selected, selection.Overrides)
	if err != nil {
		return config.Context{}, err
	}
	resolved = applyConfigDefaults(resolved)
	if err := validateConfig(resolved); err != nil {
		return config.Context{}, err
	}
	return resolved, nil
}

func (c *Catalog) Validate(_ context.Context, cfg config.Context) error {
	return validateConfig(cfg)
}

func (c *Catalog) read() (config.ContextCatalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *Catalog) update(change func(*config.ContextCatalog) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	catalog, err := c.load()
	if err != nil {
		return err
	}
	if err := change(&catalog); err != nil {
		return err
	}
	return c.store(catalog)
}

func (c *Catalog) load() (config.ContextCatalog, error) {
	path, err := c.Path()
	if err != nil {
		return config.ContextCatalog{}, err
	}

	catalog, err := decodeCatalogFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return config.ContextCatalog{}, nil
	case err != nil:
		return config.ContextCatalog{}, err
	}
	if err := securefile.Restrict(path); err != nil {
		return config.ContextCatalog{}, internalError("failed to restrict context catalog permissions", err)
	}
	if err := validateCatalog(catalog); err != nil {
		return config.ContextCatalog{}, err
	}
	return catalog, nil
}

func (c *Catalog) store(catalog config.ContextCatalog) error {
	compacted := catalog
	compacted.Contexts = make([]config.Context, len(catalog.Contexts))
	for idx, item := range catalog.Contexts {
		compacted.Contexts[idx] = compactConfigForPersistence(item)
	}
	if err := validateCatalog(compacted); err != nil {
		return err
	}

	path, err := c.Path()
	if err != nil {
		return err
	}
	encoded, err := encodeCatalog(compacted)
	if err != nil {
		return internalError("failed to encode context catalog", err)
	}
	if err := securefile.WriteAtomic(path, encoded, ".mgmtbridge-contexts-*", 0o755); err != nil {
		return internalError("failed to write context catalog", err)
	}
	return nil
}

// current returns the named context, or the catalog's current one when
// name is empty.
func current(catalog config.ContextCatalog, name string) (config.Context, error) {
	effective := name
	if effective == "" {
		effective = catalog.CurrentCtx
	}
	if effective == "" {
		return config.Context{}, notFoundError("current context not set")
	}
	idx, err := mustFind(&catalog, effective)
	if err != nil {
		return config.Context{}, err
	}
	return catalog.Contexts[idx], nil
}

func mustFind(catalog *config.ContextCatalog, name string) (int, error) {
	idx := indexOf(catalog.Contexts, name)
	if idx < 0 {
		return -1, notFoundError(fmt.Sprintf("context %q not found", name))
	}
	return idx, nil
}

func indexOf(contexts []config.Context, name string) int {
	return slices.IndexFunc(contexts, func(item config.Context) bool { return item.Name == name })
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func configurationError(message string, cause error) error {
	return faults.NewTypedError(faults.ConfigurationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
