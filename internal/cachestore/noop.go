// Package cachestore provides the cache backends the geocoding core can run on.
package cachestore

import "github.com/couchcryptid/storm-data-geocoder/internal/domain"

// Noop is a store that never holds anything: every lookup misses and every
// write is discarded.
type Noop struct{}

// NewNoop returns a no-op store.
func NewNoop() Noop { return Noop{} }

func (Noop) Contains(string) bool { return false }

func (Noop) Get(string) ([]domain.Coordinate, bool) { return nil, false }

func (Noop) GetMany([]string) map[string][]domain.Coordinate {
	return map[string][]domain.Coordinate{}
}

func (Noop) SetMany(map[string][]domain.Coordinate) {}

func (Noop) Set(string, []domain.Coordinate) {}

func (Noop) Clear() {}

func (Noop) Len() int { return 0 }

// IsNoop reports whether store can never hold entries, in which case
// periodic eviction is pointless.
func IsNoop(store domain.CacheStore) bool {
	switch store.(type) {
	case nil, Noop, *Noop:
		return true
	default:
		return false
	}
}
