package file

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/crmarques/mgmtbridge/config"
)

func validateCatalog(contextCatalog config.ContextCatalog) error {
	if len(contextCatalog.Contexts) == 0 {
		if contextCatalog.CurrentCtx != "" {
			return validationError("current-ctx must be empty when contexts list is empty", nil)
		}
		return nil
	}

	seen := map[string]struct{}{}
	for _, item := range contextCatalog.Contexts {
		if item.Name == "" {
			return validationError("context name must not be empty", nil)
		}
		if _, exists := seen[item.Name]; exists {
			return validationError(fmt.Sprintf("duplicate context name %q", item.Name), nil)
		}
		seen[item.Name] = struct{}{}

		if err := validateConfig(item); err != nil {
			return err
		}
	}

	if contextCatalog.CurrentCtx == "" {
		return validationError("current-ctx must be set when contexts are defined", nil)
	}
	if _, exists := seen[contextCatalog.CurrentCtx]; !exists {
		return validationError(fmt.Sprintf("current-ctx %q does not match any context", contextCatalog.CurrentCtx), nil)
	}

	return nil
}

func validateConfig(cfg config.Context) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return validationError("context name must not be empty", nil)
	}
	if err := validateManagement(cfg.Management); err != nil {
		return err
	}
	if err := validateCredentials(cfg.Credentials); err != nil {
		return err
	}
	return validateTelemetry(cfg.Telemetry)
}

func validateCredentials(store *config.CredentialStore) error {
	if store == nil {
		return nil
	}
	if strings.TrimSpace(store.Path) == "" {
		return validationError("credentials.path is required", nil)
	}
	keyMaterial := countSet(
		strings.TrimSpace(store.Key) != "",
		strings.TrimSpace(store.KeyFile) != "",
		strings.TrimSpace(store.Passphrase) != "",
		strings.TrimSpace(store.PassphraseFile) != "",
	)
	if keyMaterial != 1 {
		return validationError("credentials must define exactly one of key, key-file, passphrase, passphrase-file", nil)
	}
	if kdf := store.KDF; kdf != nil && (kdf.Time < 0 || kdf.Memory < 0 || kdf.Threads < 0) {
		return validationError("credentials.kdf values must not be negative", nil)
	}
	return nil
}

// applyConfigDefaults fills values resolved contexts always carry.
func applyConfigDefaults(cfg config.Context) config.Context {
	if strings.TrimSpace(cfg.Management.Server) == "" {
		cfg.Management.Server = config.DefaultServer
	}
	return cfg
}

// compactConfigForPersistence drops values equal to their defaults so the
// catalog stays minimal.
func compactConfigForPersistence(cfg config.Context) config.Context {
	if cfg.Management.Server == config.DefaultServer {
		cfg.Management.Server = ""
	}
	return cfg
}

func validateManagement(management config.Management) error {
	if countSet(management.HTTP != nil, management.Memory != nil) != 1 {
		return validationError("management must define exactly one of http or memory", nil)
	}

	if management.MinVersion != "" {
		if _, err := semver.NewConstraint(management.MinVersion); err != nil {
			return validationError("management.min-version is not a valid version constraint", err)
		}
	}

	if management.HTTP == nil {
		return nil
	}
	endpoint := management.HTTP

	if endpoint.BaseURL == "" {
		return validationError("management.http.base-url is required", nil)
	}
	parsed, err := url.Parse(endpoint.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return validationError("management.http.base-url must be an http or https url", err)
	}

	if endpoint.Timeout != "" {
		if timeout, err := time.ParseDuration(endpoint.Timeout); err != nil || timeout <= 0 {
			return validationError("management.http.timeout must be a positive duration", err)
		}
	}

	if endpoint.RateLimit != nil {
		if endpoint.RateLimit.RequestsPerSecond <= 0 {
			return validationError("management.http.rate-limit.requests-per-second must be positive", nil)
		}
		if endpoint.RateLimit.Burst < 0 {
			return validationError("management.http.rate-limit.burst must not be negative", nil)
		}
	}

	if endpoint.TLS != nil && (endpoint.TLS.ClientCertFile == "") != (endpoint.TLS.ClientKeyFile == "") {
		return validationError("management.http.tls requires both client-cert-file and client-key-file", nil)
	}

	return endpoint.Auth.Validate()
}

func validateTelemetry(telemetry *config.Telemetry) error {
	if telemetry == nil || telemetry.OTLPEndpoint == "" {
		return nil
	}
	if strings.Contains(telemetry.OTLPEndpoint, "://") {
		return validationError("telemetry.otlp-endpoint must be host:port without a scheme", nil)
	}
	return nil
}

func applyOverrides(cfg config.Context, overrides map[string]string) (config.Context, error) {
	for _, key := range sortedOverrideKeys(overrides) {
		value := overrides[key]
		switch key {
		case config.OverrideHTTPBaseURL:
			if cfg.Management.HTTP == nil {
				return config.Context{}, validationError("override management.http.base-url requires management.http to be configured", nil)
			}
			endpoint := *cfg.Management.HTTP
			endpoint.BaseURL = value
			cfg.Management.HTTP = &endpoint
		case config.OverrideProfile:
			cfg.Management.Profile = value
		case config.OverrideServer:
			cfg.Management.Server = value
		case config.OverrideMinVersion:
			cfg.Management.MinVersion = value
		case config.OverrideVerifyParent:
			enabled, err := strconv.ParseBool(value)
			if err != nil {
				return config.Context{}, validationError("override management.verify-parent must be a boolean", err)
			}
			cfg.Management.VerifyParent = enabled
		case config.OverrideMemorySeed:
			if cfg.Management.Memory == nil {
				return config.Context{}, validationError("override management.memory.seed-file requires management.memory to be configured", nil)
			}
			cfg.Management.Memory = &config.MemoryEndpoint{SeedFile: value}
		case config.OverrideOTLPEndpoint:
			telemetry := config.Telemetry{}
			if cfg.Telemetry != nil {
				telemetry = *cfg.Telemetry
			}
			telemetry.OTLPEndpoint = value
			cfg.Telemetry = &telemetry
		default:
			return config.Context{}, unknownOverrideError(key)
		}
	}

	return cfg, nil
}

func sortedOverrideKeys(overrides map[string]string) []string {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func countSet(values ...bool) int {
	count := 0
	for _, value := range values {
		if value {
			count++
		}
	}
	return count
}
