package parsing

import (
	"errors"
	"sync"
	"time"
)

// ErrTemplateNotFound indicates no parsing template exists for the given ID.
var ErrTemplateNotFound = errors.New("parsing template not found")

// Store is a thread-safe registry of parsing templates. Concurrent runs
// read it while template CRUD may write.
type Store struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{templates: make(map[string]*Template)}
}

// Template returns the template with the given ID.
func (s *Store) Template(id string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}

	return tmpl, nil
}

// All returns every stored template.
func (s *Store) All() []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Template, 0, len(s.templates))
	for _, tmpl := range s.templates {
		all = append(all, tmpl)
	}

	return all
}

// Save inserts or replaces a template.
func (s *Store) Save(tmpl *Template) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl.UpdatedAt = time.Now()
	s.templates[tmpl.ID] = tmpl
}

// Delete removes a template by ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return ErrTemplateNotFound
	}

	delete(s.templates, id)

	return nil
}
