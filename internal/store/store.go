// Package store persists project-scoped configuration as a YAML key/value
// document under the project's .foundry directory.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Dir is the per-project directory holding foundry state.
const Dir = ".foundry"

const fileName = "config.yaml"

// Store is a YAML-backed key/value document. Mutations persist immediately.
type Store struct {
	path   string
	values map[string]any
}

// Open loads the store at path. A missing file yields an empty store; the
// file is created on the first Set.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]any)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}

	return s, nil
}

// ForProject opens the store for a project directory.
func ForProject(projectDir string) (*Store, error) {
	return Open(filepath.Join(projectDir, Dir, fileName))
}

// Exists reports whether a project has a persisted store on disk.
func Exists(projectDir string) bool {
	info, err := os.Stat(filepath.Join(projectDir, Dir, fileName))
	return err == nil && info.Mode().IsRegular()
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Get returns the value for key, or def when the key is absent.
func (s *Store) Get(key string, def any) any {
	if value, ok := s.values[key]; ok {
		return value
	}
	return def
}

// Set stores a value and writes the document back to disk.
func (s *Store) Set(key string, value any) error {
	s.values[key] = value
	return s.save()
}

// Delete removes a key and writes the document back to disk. Deleting an
// absent key is a no-op.
func (s *Store) Delete(key string) error {
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save()
}

// All returns a copy of every stored value.
func (s *Store) All() map[string]any {
	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}

	return nil
}
