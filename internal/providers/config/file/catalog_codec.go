package file

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/internal/providers/shared/securefile"
)

func decodeCatalogFile(path string) (config.ContextCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.ContextCatalog{}, err
	}
	return decodeCatalog(data)
}

// decodeCatalog rejects unknown keys; an empty document is an empty catalog.
func decodeCatalog(data []byte) (config.ContextCatalog, error) {
	var catalog config.ContextCatalog
	if len(bytes.TrimSpace(data)) == 0 {
		return catalog, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		return config.ContextCatalog{}, configurationError("invalid context catalog yaml", err)
	}
	return catalog, nil
}

func encodeCatalog(catalog config.ContextCatalog) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(catalog); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// resolveCatalogPath falls back to MGMTBRIDGE_CONTEXTS_FILE and then to the
// default location. Relative paths are taken from the home directory.
func resolveCatalogPath(explicitPath string) (string, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv(config.ContextFileEnvVar)
	}
	if path == "" {
		path = config.DefaultContextCatalogPath
	}

	expanded, err := securefile.ExpandHome(path)
	if err != nil {
		return "", internalError("failed to resolve context catalog path", err)
	}
	cleaned := filepath.Clean(expanded)
	if cleaned == "." {
		return "", validationError("context catalog path is invalid", fmt.Errorf("%q resolves to the current directory", path))
	}
	if filepath.IsAbs(cleaned) {
		return cleaned, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", internalError("failed to resolve user home directory", err)
	}
	return filepath.Join(home, cleaned), nil
}

func unknownOverrideError(key string) error {
	return validationError(fmt.Sprintf("unknown override key %q", key), nil)
}
