package config

import (
	"fmt"
	"strings"

	"github.com/crmarques/mgmtbridge/faults"
)

const (
	ContextEnvPrefix  = "MGMTBRIDGE_CTX_"
	ContextEnvNameVar = ContextEnvPrefix + "NAME"
)

var overrideKeys = []string{
	OverrideHTTPBaseURL,
	OverrideProfile,
	OverrideServer,
	OverrideMinVersion,
	OverrideVerifyParent,
	OverrideMemorySeed,
	OverrideOTLPEndpoint,
}

// OverrideKeys lists the keys a context selection may override.
func OverrideKeys() []string {
	return append([]string(nil), overrideKeys...)
}

// EnvSuffix maps an override key to its environment variable suffix, e.g.
// management.http.base-url to MANAGEMENT_HTTP_BASE_URL.
func EnvSuffix(key string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return strings.ToUpper(replacer.Replace(key))
}

// OverridesFromEnv collects MGMTBRIDGE_CTX_* variables from environ (in
// os.Environ form). MGMTBRIDGE_CTX_NAME is skipped; unknown suffixes fail.
func OverridesFromEnv(environ []string) (map[string]string, error) {
	suffixToKey := make(map[string]string, len(overrideKeys))
	for _, key := range overrideKeys {
		suffixToKey[EnvSuffix(key)] = key
	}

	overrides := map[string]string{}
	for _, entry := range environ {
		if !strings.HasPrefix(entry, ContextEnvPrefix) {
			continue
		}
		name, value, _ := strings.Cut(entry, "=")
		suffix := strings.TrimPrefix(name, ContextEnvPrefix)
		if suffix == "" || name == ContextEnvNameVar {
			continue
		}
		key, ok := suffixToKey[suffix]
		if !ok {
			return nil, faults.NewTypedError(
				faults.ConfigurationError,
				fmt.Sprintf("unsupported context override %q", name),
				nil,
			)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// ContextNameFromEnv returns MGMTBRIDGE_CTX_NAME from environ.
func ContextNameFromEnv(environ []string) string {
	for _, entry := range environ {
		name, value, found := strings.Cut(entry, "=")
		if found && name == ContextEnvNameVar {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// MergeOverrides returns base with extra applied on top.
func MergeOverrides(base map[string]string, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range extra {
		merged[key] = value
	}
	return merged
}
