// Package property persists string properties keyed by (qualifier, local name) pairs and
// implements the per-project "ignore renaming" decision on top of them.
package property

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"namesync/internal/atomicfile"
)

// FileName is the name of the properties document inside the state directory.
const FileName = "properties.json"

// QualifiedName identifies a persistent property.
type QualifiedName struct {
	Qualifier string
	Local     string
}

func (q QualifiedName) String() string {
	return q.Qualifier + ":" + q.Local
}

// Store reads and writes persistent string properties.
// Get reports ok=false when the property has never been set.
type Store interface {
	Get(key QualifiedName) (value string, ok bool, err error)
	Set(key QualifiedName, value string) error
}

// FileStore keeps properties in a single JSON document:
//
//	{"<qualifier>": {"<local>": "<value>"}}
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]map[string]string
}

// NewFileStore creates a store backed by FileName inside stateDir.
// The document is read again on every access.
func NewFileStore(stateDir string) *FileStore {
	return &FileStore{path: filepath.Join(stateDir, FileName)}
}

// Path returns the backing document path.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(key QualifiedName) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return "", false, err
	}
	scope, ok := s.data[key.Qualifier]
	if !ok {
		return "", false, nil
	}
	value, ok := scope[key.Local]
	return value, ok, nil
}

// Set implements Store. The document is rewritten atomically on every call.
func (s *FileStore) Set(key QualifiedName, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	scope, ok := s.data[key.Qualifier]
	if !ok {
		scope = make(map[string]string)
		s.data[key.Qualifier] = scope
	}
	previous, existed := scope[key.Local]
	scope[key.Local] = value

	if err := s.saveLocked(); err != nil {
		if existed {
			scope[key.Local] = previous
		} else {
			delete(scope, key.Local)
		}
		return err
	}
	return nil
}

func (s *FileStore) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = make(map[string]map[string]string)
			return nil
		}
		return fmt.Errorf("read properties: %w", err)
	}
	doc := make(map[string]map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse properties %s: %w", s.path, err)
		}
	}
	s.data = doc
	return nil
}

func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	if err := atomicfile.Save(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write properties: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[QualifiedName]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[QualifiedName]string)}
}

// Get implements Store.
func (m *MemoryStore) Get(key QualifiedName) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Store.
func (m *MemoryStore) Set(key QualifiedName, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
