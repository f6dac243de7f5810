package marker

import (
	"strconv"
	"sync"
)

// MemoryStore is an in-memory Store. Failures can be injected per operation.
type MemoryStore struct {
	mu      sync.Mutex
	seq     int
	markers []Marker

	CreateErr error
	FindErr   error
	DeleteErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create implements Store.
func (s *MemoryStore) Create(resource string, m Marker) (Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return Marker{}, s.CreateErr
	}
	s.seq++
	m.ID = strconv.Itoa(s.seq)
	m.Resource = resource
	if m.Type == "" {
		m.Type = TypeProblem
	}
	m.Attributes = copyAttributes(m.Attributes)
	s.markers = append(s.markers, m)
	return m, nil
}

// Find implements Store.
func (s *MemoryStore) Find(resource, markerType string) ([]Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
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
func (s *MemoryStore) Delete(resource, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	for i, m := range s.markers {
		if m.Resource == resource && m.ID == id {
			s.markers = append(s.markers[:i], s.markers[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Count returns how many markers are attached to resource.
func (s *MemoryStore) Count(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.markers {
		if m.Resource == resource {
			n++
		}
	}
	return n
}
