package guard

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound indicates no state exists yet for the origin key.
var ErrNotFound = errors.New("guard: state not found")

// Store persists guard state keyed by origin identifier. Records are created
// lazily on first attempt and never explicitly deleted.
type Store interface {
	Find(ctx context.Context, originKey string) (State, error)
	Create(ctx context.Context, s State) error
	Update(ctx context.Context, s State) error
}

// Memory implements Store with in-process concurrency safety.
type Memory struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemory creates an empty in-memory guard store.
func NewMemory() *Memory {
	return &Memory{states: make(map[string]State)}
}

func (m *Memory) Find(_ context.Context, originKey string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[originKey]
	if !ok {
		return State{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) Create(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[s.OriginKey]; ok {
		return nil
	}
	m.states[s.OriginKey] = s
	return nil
}

func (m *Memory) Update(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.OriginKey] = s
	return nil
}
