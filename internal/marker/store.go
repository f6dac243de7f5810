package marker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"namesync/internal/atomicfile"
)

// FileName is the name of the markers document inside the state directory.
const FileName = "markers.json"

// ErrNotFound is returned when deleting a marker that does not exist.
var ErrNotFound = errors.New("marker not found")

// Store is the host's marker registry.
type Store interface {
	// Create attaches m to resource and returns it with its assigned ID.
	Create(resource string, m Marker) (Marker, error)
	// Find returns markers of markerType attached directly to resource.
	Find(resource, markerType string) ([]Marker, error)
	// Delete removes the marker with id from resource.
	Delete(resource, id string) error
}

// FileStore keeps all markers of a workspace in one JSON document.
type FileStore struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	markers []Marker
}

// NewFileStore creates a store backed by FileName inside stateDir.
func NewFileStore(stateDir string) *FileStore {
	return &FileStore{
		path: filepath.Join(stateDir, FileName),
		now:  time.Now,
	}
}

// Create implements Store.
func (s *FileStore) Create(resource string, m Marker) (Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return Marker{}, err
	}
	m.ID = uuid.NewString()
	m.Resource = resource
	if m.Type == "" {
		m.Type = TypeProblem
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}
	m.Attributes = copyAttributes(m.Attributes)

	s.markers = append(s.markers, m)
	if err := s.saveLocked(); err != nil {
		s.markers = s.markers[:len(s.markers)-1]
		return Marker{}, err
	}
	return m, nil
}

// Find implements Store.
func (s *FileStore) Find(resource, markerType string) ([]Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	var out []Marker
	for _, m := range s.markers {
		if m.Resource == resource && (markerType == "" || m.Type == markerType) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Delete implements Store.
func (s *FileStore) Delete(resource, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	kept := make([]Marker, 0, len(s.markers))
	found := false
	for _, m := range s.markers {
		if m.Resource == resource && m.ID == id {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return ErrNotFound
	}
	previous := s.markers
	s.markers = kept
	if err := s.saveLocked(); err != nil {
		s.markers = previous
		return err
	}
	return nil
}

// DeleteResource drops every marker attached to resource.
// The host calls it when the resource disappears or is closed.
func (s *FileStore) DeleteResource(resource string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return 0, err
	}
	kept := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		if m.Resource != resource {
			kept = append(kept, m)
		}
	}
	removed := len(s.markers) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	previous := s.markers
	s.markers = kept
	if err := s.saveLocked(); err != nil {
		s.markers = previous
		return 0, err
	}
	return removed, nil
}

// All returns every marker sorted by resource then creation time.
func (s *FileStore) All() ([]Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// loadLocked re-reads the document on every call; other processes share the file.
func (s *FileStore) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.markers = nil
			return nil
		}
		return fmt.Errorf("read markers: %w", err)
	}
	var markers []Marker
	if len(data) > 0 {
		if err := json.Unmarshal(data, &markers); err != nil {
			return fmt.Errorf("parse markers %s: %w", s.path, err)
		}
	}
	s.markers = markers
	return nil
}

func (s *FileStore) saveLocked() error {
	markers := s.markers
	if markers == nil {
		markers = []Marker{}
	}
	data, err := json.MarshalIndent(markers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode markers: %w", err)
	}
	if err := atomicfile.Save(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write markers: %w", err)
	}
	return nil
}

func copyAttributes(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
