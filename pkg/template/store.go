package template

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrTemplateNotFound indicates no template exists for the given ID.
var ErrTemplateNotFound = errors.New("config template not found")

// Store is the read surface the execution engine needs from a template
// registry. The engine resolves templates by identity only; CRUD belongs
// to the management layer.
type Store interface {
	Template(id string) (*ConfigTemplate, error)
}

// MemoryStore is a thread-safe in-memory template registry. Reads from
// concurrent runs and occasional external writes (template CRUD) may
// interleave freely.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]*ConfigTemplate
}

// NewMemoryStore creates an empty registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]*ConfigTemplate)}
}

// Template returns the template with the given ID.
func (s *MemoryStore) Template(id string) (*ConfigTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}

	return tmpl, nil
}

// All returns every stored template.
func (s *MemoryStore) All() []*ConfigTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*ConfigTemplate, 0, len(s.templates))
	for _, tmpl := range s.templates {
		all = append(all, tmpl)
	}

	return all
}

// ByDeviceType returns the templates registered for a device type.
func (s *MemoryStore) ByDeviceType(deviceType string) []*ConfigTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*ConfigTemplate

	for _, tmpl := range s.templates {
		if strings.EqualFold(tmpl.DeviceType, deviceType) {
			matched = append(matched, tmpl)
		}
	}

	return matched
}

// Search returns the templates whose name or description contains term,
// case-insensitively.
func (s *MemoryStore) Search(term string) []*ConfigTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(term)

	var matched []*ConfigTemplate

	for _, tmpl := range s.templates {
		if strings.Contains(strings.ToLower(tmpl.Name), lower) ||
			strings.Contains(strings.ToLower(tmpl.Description), lower) {
			matched = append(matched, tmpl)
		}
	}

	return matched
}

// Save inserts or replaces a template.
func (s *MemoryStore) Save(tmpl *ConfigTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl.UpdatedAt = time.Now()
	s.templates[tmpl.ID] = tmpl
}

// Delete removes a template by ID.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return ErrTemplateNotFound
	}

	delete(s.templates, id)

	return nil
}
