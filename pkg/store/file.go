package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/menta2k/camera-translator/internal/utils"
)

// FileStore persists keys as a single JSON object on disk. A missing or
// corrupt file reads as empty rather than failing: parse failures are
// treated as absence.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFile opens (or initializes) a file-backed store at path.
func OpenFile(path string) (*FileStore, error) {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	fs := &FileStore{path: path, values: map[string]string{}}
	data, err := os.ReadFile(path)
	if err == nil {
		var m map[string]string
		if json.Unmarshal(data, &m) == nil && m != nil {
			fs.values = m
		}
	}
	return fs, nil
}

func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flush()
}

func (f *FileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return f.flush()
}

func (f *FileStore) flush() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}
