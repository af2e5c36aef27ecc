package domain

import (
	"context"
	"time"
)

// Resolver performs the network side of geocoding: one call per FetchRaw.
type Resolver interface {
	// FetchRaw returns the raw positional strings the service matched for
	// address, best match first. An empty slice with a nil error means the
	// service found nothing.
	FetchRaw(ctx context.Context, address string) ([]string, error)

	// CheckReachable reports whether the service answers within timeout.
	// A non-positive timeout selects the implementation default.
	CheckReachable(ctx context.Context, timeout time.Duration) bool

	// Close releases transport resources held by the resolver.
	Close() error
}

// CacheStore maps addresses to complete resolution results. Implementations
// must be safe for concurrent use.
type CacheStore interface {
	Contains(address string) bool
	Get(address string) ([]Coordinate, bool)

	// GetMany returns the entries present for addresses. Absent keys are omitted.
	GetMany(addresses []string) map[string][]Coordinate

	SetMany(entries map[string][]Coordinate)
	Set(address string, points []Coordinate)
	Clear()
	Len() int
}
