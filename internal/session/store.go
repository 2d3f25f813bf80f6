package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultStorePath = "~/.config/folio/session.toml"

// Store persists the bearer token in a small TOML file under the fixed key
// "token".
type Store struct {
	path string
}

type storedSession struct {
	Token string `toml:"token"`
}

// NewStore returns a Store backed by path. An empty path uses
// ~/.config/folio/session.toml.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultStorePath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session path: %w", err)
	}
	return &Store{path: resolved}, nil
}

// Path returns the resolved file location.
func (s *Store) Path() string { return s.path }

// Load returns the persisted token, or "" when none is stored.
func (s *Store) Load() (string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("open session: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	var stored storedSession
	if err := toml.Unmarshal(bytes, &stored); err != nil {
		return "", fmt.Errorf("parse session: %w", err)
	}
	return strings.TrimSpace(stored.Token), nil
}

// Save writes token with owner-only permissions, creating directories as
// needed.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	bytes, err := toml.Marshal(storedSession{Token: token})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, bytes, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("chmod session: %w", err)
	}
	return nil
}

// Clear removes the persisted token. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
