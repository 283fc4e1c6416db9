package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkleiva/sosivask/internal/sosi"
)

// Memory is a mutex-guarded in-process SelectionStore. It is the
// default when no database is configured; contents vanish on restart.
type Memory struct {
	mu         sync.RWMutex
	selections map[string]StoredSelection
	now        func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		selections: make(map[string]StoredSelection),
		now:        time.Now,
	}
}

// Get returns the named selection.
func (m *Memory) Get(_ context.Context, name string) (StoredSelection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.selections[name]
	if !ok {
		return StoredSelection{}, ErrNotFound
	}
	st.Selection = cloneSelection(st.Selection)
	return st, nil
}

// Put creates or replaces the named selection.
func (m *Memory) Put(_ context.Context, name string, sel sosi.Selection) (StoredSelection, error) {
	if err := validateName(name); err != nil {
		return StoredSelection{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st := StoredSelection{
		Name:      name,
		Selection: cloneSelection(sel),
		UpdatedAt: m.now().UTC(),
	}
	m.selections[name] = st

	st.Selection = cloneSelection(st.Selection)
	return st, nil
}

// Delete removes the named selection.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.selections[name]; !ok {
		return ErrNotFound
	}
	delete(m.selections, name)
	return nil
}

// List returns all selections sorted by name for consistent ordering.
func (m *Memory) List(_ context.Context) ([]StoredSelection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]StoredSelection, 0, len(m.selections))
	for _, st := range m.selections {
		st.Selection = cloneSelection(st.Selection)
		result = append(result, st)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}
