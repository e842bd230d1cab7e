package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/elexam/internal/constants"
	"github.com/julianstephens/elexam/internal/keyring"
)

// KeyringConfig selects the PostgreSQL connection string stored in the OS keyring.
const KeyringConfig = "keyring"

var (
	ErrNotInitialized = fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	ErrNotLoaded      = errors.New("storage not loaded")
)

var getConnectionString = keyring.GetConnectionString

// New picks a provider for a config value:
//   - postgres:// or postgresql:// URLs and "keyring" select PostgreSQL
//   - paths ending in .json select the JSON file store
//   - anything else is a SQLite database path
func New(config string) (Provider, error) {
	switch {
	case isPostgresURL(config):
		if HasEmbeddedCredentials(config) {
			return nil, ErrEmbeddedCredentials
		}
		return NewPostgresStore(config), nil
	case config == KeyringConfig:
		connStr, err := resolveSecretConnString()
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(connStr), nil
	}

	path, err := expandHome(config)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return NewJSONStore(path), nil
	}
	return NewSQLiteStore(path), nil
}

// resolveSecretConnString reads the keyring first and falls back to the
// environment.
func resolveSecretConnString() (string, error) {
	connStr, err := getConnectionString()
	if err == nil {
		return connStr, nil
	}
	if env := strings.TrimSpace(os.Getenv(constants.EnvDBConnection)); env != "" {
		return env, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("no connection string in keyring or %s: %w", constants.EnvDBConnection, err)
	}
	return "", err
}

func isPostgresURL(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return home + path[1:], nil
	}
	return path, nil
}
