package geocoder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/couchcryptid/storm-data-geocoder/internal/cachestore"
	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
)

// Geocoder is the public entry point. It is safe for concurrent use and must
// be closed to stop cache eviction and release the resolver.
type Geocoder struct {
	engine   *engine
	resolver domain.Resolver

	cancel    context.CancelFunc
	evictDone <-chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New creates a Geocoder over resolver. Eviction starts immediately when a
// caching store is configured.
func New(resolver domain.Resolver, opts ...Option) *Geocoder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	g := &Geocoder{
		engine:   newEngine(o.store, resolver, o),
		resolver: resolver,
	}

	if !cachestore.IsNoop(o.store) && o.ttl > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		ev := newEvictor(g.engine, o.clock, o.ttl, o.logger)
		g.cancel = cancel
		g.evictDone = ev.done
		go ev.run(ctx)
	}

	return g
}

// Points returns every match for address, best first. The slice is empty
// when nothing matched under ReturnEmpty.
func (g *Geocoder) Points(ctx context.Context, address string) ([]domain.Coordinate, error) {
	points, _, err := g.engine.resolve(ctx, address)
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Point returns the best match for address, or nil when there is none.
func (g *Geocoder) Point(ctx context.Context, address string) (*domain.Coordinate, error) {
	points, err := g.Points(ctx, address)
	if err != nil {
		return nil, err
	}
	return domain.First(points), nil
}

// PointsByAddresses resolves the distinct addresses concurrently. The result
// has exactly one key per distinct address. progress may be nil.
func (g *Geocoder) PointsByAddresses(ctx context.Context, addresses []string, progress Progress) (map[string][]domain.Coordinate, error) {
	return g.engine.resolveMany(ctx, addresses, progress)
}

// PointByAddresses is PointsByAddresses reduced to the best match per
// address; addresses without a match map to nil.
func (g *Geocoder) PointByAddresses(ctx context.Context, addresses []string, progress Progress) (map[string]*domain.Coordinate, error) {
	all, err := g.engine.resolveMany(ctx, addresses, progress)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Coordinate, len(all))
	for a, points := range all {
		out[a] = domain.First(points)
	}
	return out, nil
}

// RequestCount is the number of service calls dispatched so far. Cache hits
// do not count.
func (g *Geocoder) RequestCount() int64 {
	return g.engine.requests.Load()
}

// Store exposes the cache backend.
func (g *Geocoder) Store() domain.CacheStore {
	return g.engine.store
}

// ClearCache drops every cached entry, waiting for any in-flight population.
func (g *Geocoder) ClearCache(ctx context.Context) error {
	_, err := g.engine.clear(ctx)
	return err
}

// CheckConnection reports whether the geocoding service answers within timeout.
func (g *Geocoder) CheckConnection(ctx context.Context, timeout time.Duration) bool {
	return g.resolver.CheckReachable(ctx, timeout)
}

// CheckReadiness returns nil when the geocoding service is reachable.
func (g *Geocoder) CheckReadiness(ctx context.Context) error {
	if !g.CheckConnection(ctx, 0) {
		return errors.New("geocoding service is not reachable")
	}
	return nil
}

// Close stops cache eviction, waits for it to exit, and closes the resolver.
// Calling Close more than once is safe.
func (g *Geocoder) Close() error {
	g.closeOnce.Do(func() {
		if g.cancel != nil {
			g.cancel()
			<-g.evictDone
		}
		g.closeErr = g.resolver.Close()
	})
	return g.closeErr
}
