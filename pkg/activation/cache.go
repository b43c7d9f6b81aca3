package activation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Snapshot is the locally persisted activation state. It is advisory: the
// server is the source of truth.
type Snapshot struct {
	Activated bool     `json:"activated"`
	Phone     string   `json:"phone,omitempty"`
	Profile   *Profile `json:"profile,omitempty"`
}

// FileCache stores a Snapshot as a JSON file
type FileCache struct {
	path string
	mu   sync.Mutex
}

func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the backing file location
func (c *FileCache) Path() string {
	return c.path
}

// Load returns the stored snapshot, or an empty one when nothing is stored
func (c *FileCache) Load() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read activation cache: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode activation cache: %w", err)
	}
	return snap, nil
}

// Save replaces the stored snapshot atomically
func (c *FileCache) Save(snap Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".activation-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write activation cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace activation cache: %w", err)
	}
	return nil
}

// Clear removes the stored snapshot
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear activation cache: %w", err)
	}
	return nil
}
