package storage

import (
	"context"
	"sync"
)

type MemoryMirror struct {
	mu         sync.Mutex
	values     map[string][]byte
	failWrites bool
	writes     int
}

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{values: make(map[string][]byte)}
}

func (m *MemoryMirror) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryMirror) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrStorageWrite
	}
	m.values[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

func (m *MemoryMirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// SetFailWrites makes Put return ErrStorageWrite until cleared.
func (m *MemoryMirror) SetFailWrites(fail bool) {
	m.mu.Lock()
	m.failWrites = fail
	m.mu.Unlock()
}

func (m *MemoryMirror) Close() error { return nil }
