// Package session holds the opaque session state (bearer token, user name)
// the API client reads. The catalog engine never owns its lifecycle; only the
// login and logout commands write it.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Well-known keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store is a read-only key-value view of the session.
type Store interface {
	Get(key string) (string, bool)
}

// FileStore is a Store persisted as a YAML map in a single file.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// Open loads the session file at path. A missing file yields an empty store.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: map[string]string{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Token implements api.TokenSource.
func (s *FileStore) Token() string {
	v, _ := s.Get(KeyToken)
	return v
}

// Set stores a value and writes the file.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.save()
}

// Clear removes every value and deletes the file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// EnvOverride layers an environment-provided token over another store.
type EnvOverride struct {
	Store
	TokenEnv string
}

// Token returns the token from the environment when set, else from Store.
func (e EnvOverride) Token() string {
	if e.TokenEnv != "" {
		if v := os.Getenv(e.TokenEnv); v != "" {
			return v
		}
	}
	v, _ := e.Get(KeyToken)
	return v
}
