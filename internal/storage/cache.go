package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

// Fixed cache keys.
const (
	KeyTemplate  = "template"
	KeyConfigs   = "configs"
	KeyFavorites = "favorites"
)

// Cache is a small key-scoped document store.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// FileCache keeps one JSON document per key in the data directory.
type FileCache struct {
	mu      sync.Mutex
	dataDir string
}

// NewFileCache creates the data directory if needed.
func NewFileCache(dataDir string) (*FileCache, error) {
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}
	return &FileCache{dataDir: dataDir}, nil
}

func (c *FileCache) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(c.dataDir, key+".json"), nil
}

// Get returns the stored document and whether one exists.
func (c *FileCache) Get(key string) ([]byte, bool, error) {
	path, err := c.path(key)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the document under key. Readers never see a partial write.
func (c *FileCache) Set(key string, value []byte) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(c.dataDir, "."+key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(value); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Chmod(secureFileMode); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// GetJSON decodes the document under key into v. It reports false, and
// leaves v alone, when nothing is stored.
func GetJSON(c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key as indented JSON.
func SetJSON(c Cache, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(key, data)
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{docs: map[string][]byte{}}
}

func (m *MemoryCache) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[key]
	return append([]byte(nil), data...), ok, nil
}

func (m *MemoryCache) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]byte(nil), value...)
	return nil
}
