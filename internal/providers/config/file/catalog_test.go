package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/faults"
)

const validContextCatalogYAML = `
contexts:
  - name: dev
    management:
      http:
        base-url: https://mgmt.example.com:9990
        auth:
          basic-auth:
            username: admin
            password: secret
        rate-limit:
          requests-per-second: 5
      profile: full
      server: live
  - name: offline
    management:
      memory:
        seed-file: /tmp/seed.json
current-ctx: dev
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "contexts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test catalog: %v", err)
	}
	return path
}

func TestDecodeCatalogSuccess(t *testing.T) {
	t.Parallel()

	contextCatalog, err := decodeCatalog([]byte(validContextCatalogYAML))
	if err != nil {
		t.Fatalf("decodeCatalog returned error: %v", err)
	}
	if len(contextCatalog.Contexts) != 2 {
		t.Fatalf("expected 2 contexts, got %d", len(contextCatalog.Contexts))
	}
	if contextCatalog.CurrentCtx != "dev" {
		t.Fatalf("expected current-ctx dev, got %q", contextCatalog.CurrentCtx)
	}
	if got := contextCatalog.Contexts[0].Management.HTTP.RateLimit.RequestsPerSecond; got != 5 {
		t.Fatalf("expected rate limit 5, got %v", got)
	}
}

func TestDecodeCatalogRejectsUnknownField(t *testing.T) {
	t.Parallel()

	invalidYAML := `
contexts:
  - name: dev
    management:
      memory: {}
      unknown-key: true
current-ctx: dev
`
	_, err := decodeCatalog([]byte(invalidYAML))
	assertTypedCategory(t, err, faults.ConfigurationError)
}

func TestValidateConfigRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Context
	}{
		{
			name: "no_endpoint",
			cfg:  config.Context{Name: "dev"},
		},
		{
			name: "both_endpoints",
			cfg: config.Context{Name: "dev", Management: config.Management{
				HTTP:   validHTTPEndpoint(),
				Memory: &config.MemoryEndpoint{},
			}},
		},
		{
			name: "http_without_auth",
			cfg: config.Context{Name: "dev", Management: config.Management{
				HTTP: &config.HTTPEndpoint{BaseURL: "https://mgmt.example.com"},
			}},
		},
		{
			name: "http_bad_scheme",
			cfg: config.Context{Name: "dev", Management: config.Management{
				HTTP: &config.HTTPEndpoint{BaseURL: "ftp://mgmt.example.com", Auth: validHTTPEndpoint().Auth},
			}},
		},
		{
			name: "two_auth_modes",
			cfg: config.Context{Name: "dev", Management: config.Management{
				HTTP: &config.HTTPEndpoint{BaseURL: "https://mgmt.example.com", Auth: &config.HTTPAuth{
					BearerToken: &config.BearerTokenAuth{Token: "t"},
					BasicAuth:   &config.BasicAuth{Username: "u", Password: "p"},
				}},
			}},
		},
		{
			name: "bad_min_version",
			cfg: config.Context{Name: "dev", Management: config.Management{
				Memory:     &config.MemoryEndpoint{},
				MinVersion: "not a constraint!",
			}},
		},
		{
			name: "zero_rate_limit",
			cfg: config.Context{Name: "dev", Management: config.Management{
				HTTP: func() *config.HTTPEndpoint {
					endpoint := validHTTPEndpoint()
					endpoint.RateLimit = &config.RateLimit{}
					return endpoint
				}(),
			}},
		},
		{
			name: "otlp_endpoint_with_scheme",
			cfg: config.Context{
				Name:       "dev",
				Management: config.Management{Memory: &config.MemoryEndpoint{}},
				Telemetry:  &config.Telemetry{OTLPEndpoint: "http://collector:4317"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertTypedCategory(t, validateConfig(tt.cfg), faults.ValidationError)
		})
	}
}

func TestResolveCatalogPathDefaultAndEnv(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to resolve home dir: %v", err)
	}

	resolvedDefault, err := resolveCatalogPath(config.DefaultContextCatalogPath)
	if err != nil {
		t.Fatalf("resolveCatalogPath default failed: %v", err)
	}
	if expected := filepath.Join(home, ".mgmtbridge/contexts.yaml"); resolvedDefault != expected {
		t.Fatalf("expected %q, got %q", expected, resolvedDefault)
	}

	envPath := filepath.Join(t.TempDir(), "contexts.yaml")
	t.Setenv(config.ContextFileEnvVar, envPath)
	resolvedFromEnv, err := resolveCatalogPath("")
	if err != nil {
		t.Fatalf("resolveCatalogPath env failed: %v", err)
	}
	if resolvedFromEnv != envPath {
		t.Fatalf("expected env path %q, got %q", envPath, resolvedFromEnv)
	}
}

func TestResolveContextSelectionAndOverrides(t *testing.T) {
	t.Parallel()

	contextService := NewCatalog(writeCatalog(t, validContextCatalogYAML))

	t.Run("empty_name_uses_current_context", func(t *testing.T) {
		t.Parallel()

		resolved, err := contextService.ResolveContext(context.Background(), config.ContextSelection{})
		if err != nil {
			t.Fatalf("ResolveContext returned error: %v", err)
		}
		if resolved.Name != "dev" || resolved.Management.Server != "live" || resolved.Management.Profile != "full" {
			t.Fatalf("unexpected context %+v", resolved)
		}
	})

	t.Run("server_defaults", func(t *testing.T) {
		t.Parallel()

		resolved, err := contextService.ResolveContext(context.Background(), config.ContextSelection{Name: "offline"})
		if err != nil {
			t.Fatalf("ResolveContext returned error: %v", err)
		}
		if resolved.Management.Server != config.DefaultServer {
			t.Fatalf("expected default server, got %q", resolved.Management.Server)
		}
	})

	t.Run("overrides_take_precedence", func(t *testing.T) {
		t.Parallel()

		resolved, err := contextService.ResolveContext(context.Background(), config.ContextSelection{
			Name: "dev",
			Overrides: map[string]string{
				config.OverrideHTTPBaseURL:  "https://other.example.com:9993",
				config.OverrideServer:       "backup",
				config.OverrideVerifyParent: "true",
			},
		})
		if err != nil {
			t.Fatalf("ResolveContext returned error: %v", err)
		}
		if resolved.Management.HTTP.BaseURL != "https://other.example.com:9993" {
			t.Fatalf("expected overridden base-url, got %q", resolved.Management.HTTP.BaseURL)
		}
		if resolved.Management.Server != "backup" || !resolved.Management.VerifyParent {
			t.Fatalf("unexpected management %+v", resolved.Management)
		}
	})

	t.Run("override_does_not_leak_into_catalog", func(t *testing.T) {
		t.Parallel()

		contexts, err := contextService.List(context.Background())
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if contexts[0].Management.HTTP.BaseURL != "https://mgmt.example.com:9990" {
			t.Fatalf("catalog was modified: %q", contexts[0].Management.HTTP.BaseURL)
		}
	})

	t.Run("unknown_override_fails", func(t *testing.T) {
		t.Parallel()

		_, err := contextService.ResolveContext(context.Background(), config.ContextSelection{
			Overrides: map[string]string{"unknown.key": "value"},
		})
		if err == nil || !strings.Contains(err.Error(), "unknown override key") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("http_override_requires_http", func(t *testing.T) {
		t.Parallel()

		_, err := contextService.ResolveContext(context.Background(), config.ContextSelection{
			Name:      "offline",
			Overrides: map[string]string{config.OverrideHTTPBaseURL: "https://x"},
		})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("unknown_context_returns_not_found", func(t *testing.T) {
		t.Parallel()

		_, err := contextService.ResolveContext(context.Background(), config.ContextSelection{Name: "missing"})
		assertTypedCategory(t, err, faults.NotFoundError)
	})
}

func TestCatalogCreateWritesUserOnlyCatalogPermissions(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX file mode semantics are not portable on Windows")
	}

	path := filepath.Join(t.TempDir(), "nested", "contexts.yaml")
	contextService := NewCatalog(path)

	err := contextService.Create(context.Background(), config.Context{
		Name:       "dev",
		Management: config.Management{HTTP: validHTTPEndpoint(), Server: config.DefaultServer},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat catalog: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Fatalf("expected 0600 permissions, got %#o", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read catalog: %v", err)
	}
	if strings.Contains(string(data), "server:") {
		t.Fatalf("expected default server not to be persisted:\n%s", data)
	}
}

func TestCatalogLoadCatalogNormalizesPermissiveFileMode(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX file mode semantics are not portable on Windows")
	}

	path := filepath.Join(t.TempDir(), "contexts.yaml")
	if err := os.WriteFile(path, []byte(validContextCatalogYAML), 0o644); err != nil {
		t.Fatalf("failed to write test catalog: %v", err)
	}

	if _, err := NewCatalog(path).List(context.Background()); err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat catalog: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Fatalf("expected normalized 0600 permissions, got %#o", got)
	}
}

func TestContextServiceCRUDLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	contextService := NewCatalog(filepath.Join(t.TempDir(), "contexts.yaml"))

	if _, err := contextService.GetCurrent(ctx); !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected not found on missing catalog, got %v", err)
	}

	first := config.Context{Name: "first", Management: config.Management{Memory: &config.MemoryEndpoint{}}}
	second := config.Context{Name: "second", Management: config.Management{HTTP: validHTTPEndpoint()}}
	for _, item := range []config.Context{first, second} {
		if err := contextService.Create(ctx, item); err != nil {
			t.Fatalf("Create(%s) returned error: %v", item.Name, err)
		}
	}
	assertTypedCategory(t, contextService.Create(ctx, first), faults.ValidationError)

	current, err := contextService.GetCurrent(ctx)
	if err != nil || current.Name != "first" {
		t.Fatalf("expected first context to become current, got %q (%v)", current.Name, err)
	}

	if err := contextService.SetCurrent(ctx, "second"); err != nil {
		t.Fatalf("SetCurrent returned error: %v", err)
	}
	if err := contextService.Rename(ctx, "second", "prod"); err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	current, err = contextService.GetCurrent(ctx)
	if err != nil || current.Name != "prod" {
		t.Fatalf("expected renamed context to stay current, got %q (%v)", current.Name, err)
	}

	second.Name = "prod"
	second.Management.Profile = "ha"
	if err := contextService.Update(ctx, second); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := contextService.Delete(ctx, "prod"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	current, err = contextService.GetCurrent(ctx)
	if err != nil || current.Name != "first" {
		t.Fatalf("expected current to fall back to first, got %q (%v)", current.Name, err)
	}

	assertTypedCategory(t, contextService.Delete(ctx, "missing"), faults.NotFoundError)
	assertTypedCategory(t, contextService.SetCurrent(ctx, "missing"), faults.NotFoundError)
}

func assertTypedCategory(t *testing.T, err error, category faults.ErrorCategory) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %q error, got nil", category)
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		t.Fatalf("expected typed error, got %T", err)
	}
	if typedErr.Category != category {
		t.Fatalf("expected %q category, got %q", category, typedErr.Category)
	}
}

func validHTTPEndpoint() *config.HTTPEndpoint {
	return &config.HTTPEndpoint{
		BaseURL: "https://mgmt.example.com:9990",
		Auth: &config.HTTPAuth{
			BearerToken: &config.BearerTokenAuth{Token: "secret-token"},
		},
	}
}

func TestCatalogSerializesConcurrentCreates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := NewCatalog(filepath.Join(t.TempDir(), "contexts.yaml"))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for idx := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- catalog.Create(ctx, config.Context{
				Name:       fmt.Sprintf("ctx-%d", idx),
				Management: config.Management{HTTP: validHTTPEndpoint(), Server: config.DefaultServer},
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	contexts, err := catalog.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(contexts) != 8 {
		t.Fatalf("expected 8 contexts, got %d", len(contexts))
	}
}
