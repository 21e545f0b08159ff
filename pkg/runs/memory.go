package runs

import (
	"context"
	"sync"
)

// MemoryRegistry keeps run records in process memory. Suitable for
// single-process deployments and tests.
type MemoryRegistry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{runs: make(map[string]*Run)}
}

func (m *MemoryRegistry) Put(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs[run.ExecutionID] = run

	return nil
}

func (m *MemoryRegistry) Get(_ context.Context, executionID string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[executionID]
	if !ok {
		return nil, ErrRunNotFound
	}

	return run, nil
}

func (m *MemoryRegistry) List(_ context.Context) ([]*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		all = append(all, run)
	}

	return all, nil
}

func (m *MemoryRegistry) Delete(_ context.Context, executionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[executionID]; !ok {
		return ErrRunNotFound
	}

	delete(m.runs, executionID)

	return nil
}

func (m *MemoryRegistry) Close(_ context.Context) error {
	return nil
}
