package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileStore keeps one file per key in a configuration directory
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	// 0750: the station list is personal configuration
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// DefaultDir returns the default configuration directory
func DefaultDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "perron")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "perron")
	}

	return filepath.Join(home, ".config", "perron")
}

// keyToFilename converts a key to a filename inside the store directory
func (s *FileStore) keyToFilename(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the value stored under key
func (s *FileStore) Get(key string) (string, bool, error) {
	filename, err := s.keyToFilename(key)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// #nosec G304 -- filename is validated against validKey
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	return string(data), true, nil
}

// Set writes value under key. The file is replaced atomically so a crash
// never leaves a half-written list behind.
func (s *FileStore) Set(key, value string) error {
	filename, err := s.keyToFilename(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	// Use 0600 to restrict access to owner only
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", filename, err)
	}

	return os.Rename(tmp.Name(), filename)
}

// Dir returns the directory the store writes to
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Close() error {
	return nil
}
