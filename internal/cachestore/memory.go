package cachestore

import (
	"slices"
	"sync"

	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
)

// Memory is a thread-safe in-process store. Entries live until Clear.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]domain.Coordinate
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string][]domain.Coordinate),
	}
}

func (m *Memory) Contains(address string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[address]
	return ok
}

func (m *Memory) Get(address string) ([]domain.Coordinate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	points, ok := m.entries[address]
	if !ok {
		return nil, false
	}
	return slices.Clone(points), true
}

func (m *Memory) GetMany(addresses []string) map[string][]domain.Coordinate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]domain.Coordinate, len(addresses))
	for _, a := range addresses {
		if points, ok := m.entries[a]; ok {
			out[a] = slices.Clone(points)
		}
	}
	return out
}

// SetMany installs all entries under one write lock, so readers observe
// either none or all of them.
func (m *Memory) SetMany(entries map[string][]domain.Coordinate) {
	if len(entries) == 0 {
		return
	}
	prepared := make(map[string][]domain.Coordinate, len(entries))
	for a, points := range entries {
		prepared[a] = ownedCopy(points)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for a, points := range prepared {
		m.entries[a] = points
	}
}

func (m *Memory) Set(address string, points []domain.Coordinate) {
	owned := ownedCopy(points)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[address] = owned
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]domain.Coordinate)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// ownedCopy detaches a result from the caller's backing array. Empty results
// are stored as empty, not nil, so a cached "no match" reads back as [].
func ownedCopy(points []domain.Coordinate) []domain.Coordinate {
	out := make([]domain.Coordinate, len(points))
	copy(out, points)
	return out
}
