package session

import (
	"context"
	"sync"

	"stationhq.org/internal/auth"
)

var _ SlotStore = (*Memory)(nil)

// Memory implements SlotStore with in-process concurrency safety.
type Memory struct {
	mu    sync.RWMutex
	slots map[auth.AccountClass]Record
}

// NewMemory creates an empty in-memory slot store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[auth.AccountClass]Record)}
}

func (m *Memory) Get(_ context.Context, class auth.AccountClass) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.slots[class]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (m *Memory) Set(_ context.Context, class auth.AccountClass, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[class] = rec
	return nil
}

func (m *Memory) Delete(_ context.Context, class auth.AccountClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, class)
	return nil
}
