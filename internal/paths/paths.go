package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultStateDir returns the default sheetctl state directory.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	return filepath.Join(home, ".local", "state", "sheetctl"), nil
}

// DefaultConfigPath returns the global config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	return filepath.Join(home, ".config", "sheetctl", "config.toml"), nil
}

// ResolveWithDefault returns override when it is set, and otherwise
// falls back to defaultFn.
func ResolveWithDefault(override string, defaultFn func() (string, error)) (string, error) {
	if override != "" {
		return override, nil
	}
	return defaultFn()
}
