package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultStorageDir is the default directory for credential entries,
// relative to the user's home directory.
const DefaultStorageDir = ".config/stockportal/credentials"

// FileBackend stores each entry as a file under a private directory.
//
// SECURITY: the directory is created with 0700 permissions and entry files
// with 0600 (owner read/write only).
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir. An empty dir selects
// ~/.config/stockportal/credentials.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, DefaultStorageDir)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credential storage directory: %w", err)
	}

	return &FileBackend{dir: dir}, nil
}

// Dir returns the directory holding the entry files.
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) Read(_ context.Context, name string) (string, bool, error) {
	path, err := b.entryPath(name)
	if err != nil {
		return "", false, err
	}

	// #nosec G304 -- path is built from a validated entry name
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read credential entry %s: %w", name, err)
	}

	return strings.TrimSpace(string(data)), true, nil
}

func (b *FileBackend) Write(_ context.Context, name, value string) error {
	path, err := b.entryPath(name)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to write credential entry %s: %w", name, err)
	}
	return nil
}

func (b *FileBackend) Remove(_ context.Context, name string) error {
	path, err := b.entryPath(name)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credential entry %s: %w", name, err)
	}
	return nil
}

func (b *FileBackend) entryPath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid credential entry name %q", name)
	}
	return filepath.Join(b.dir, name), nil
}
