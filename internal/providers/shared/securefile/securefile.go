// Package securefile writes owner-only files shared by the file backed
// providers: the context catalog and the credential store.
package securefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const Mode fs.FileMode = 0o600

// ExpandHome replaces a leading "~" with the user home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// WriteAtomic replaces path with data through a temporary sibling named
// after tempPattern, so readers never observe a partial file.
func WriteAtomic(path string, data []byte, tempPattern string, dirMode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	fail := func(step string, cause error) error {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("%s: %w", step, cause)
	}

	if _, err := tempFile.Write(data); err != nil {
		return fail("write temporary file", err)
	}
	if err := tempFile.Chmod(Mode); err != nil {
		return fail("set file permissions", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Restrict narrows an existing file to owner read/write. A missing file is
// not an error.
func Restrict(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("inspect %s: %w", path, err)
	}
	if info.Mode().Perm() == Mode {
		return nil
	}
	if err := os.Chmod(path, Mode); err != nil {
		return fmt.Errorf("restrict %s: %w", path, err)
	}
	return nil
}
