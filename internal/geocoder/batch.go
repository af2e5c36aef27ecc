package geocoder

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Progress receives the running number of resolved addresses in a batch.
// Values strictly increase and each completion is reported once.
type Progress func(completed int)

type progressTracker struct {
	mu   sync.Mutex
	sink Progress
	done int
}

func newProgressTracker(sink Progress, initial int) *progressTracker {
	t := &progressTracker{sink: sink, done: initial}
	if sink != nil && initial > 0 {
		sink(initial)
	}
	return t
}

func (t *progressTracker) advance() {
	if t.sink == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	t.sink(t.done)
}

// resolveMany resolves the distinct elements of addresses. Under ReturnError
// the first failure cancels the remaining work and fails the batch.
func (e *engine) resolveMany(ctx context.Context, addresses []string, progress Progress) (map[string][]domain.Coordinate, error) {
	unique := distinct(addresses)
	e.metrics.BatchAddresses.Observe(float64(len(unique)))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("geocode batch: %w", err)
	}

	var cached, uncached []string
	for _, a := range unique {
		if e.store.Contains(a) {
			cached = append(cached, a)
		} else {
			uncached = append(uncached, a)
		}
	}

	// Buffered so the reader never blocks if the batch fails first.
	fromCache := make(chan map[string][]domain.Coordinate, 1)
	if len(cached) > 0 {
		go func() {
			fromCache <- e.store.GetMany(cached)
		}()
	} else {
		fromCache <- nil
	}
	tracker := newProgressTracker(progress, len(cached))

	fresh := make([][]domain.Coordinate, len(uncached))
	cacheable := make([]bool, len(uncached))

	g, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, address := range uncached {
		g.Go(func() error {
			points, ok, err := e.resolve(gctx, address)
			if err != nil {
				return err
			}
			fresh[i], cacheable[i] = points, ok
			tracker.advance()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(map[string][]domain.Coordinate, len(unique))
	toStore := make(map[string][]domain.Coordinate, len(uncached))
	for i, a := range uncached {
		results[a] = fresh[i]
		if cacheable[i] {
			toStore[a] = fresh[i]
		}
	}
	if len(toStore) > 0 {
		e.store.SetMany(toStore)
		e.metrics.CacheEntries.Set(float64(e.store.Len()))
	}

	for a, points := range <-fromCache {
		results[a] = points
	}
	// An eviction between partitioning and the cache read drops entries;
	// those addresses go back through the single-address path.
	for _, a := range cached {
		if _, ok := results[a]; ok {
			continue
		}
		points, _, err := e.resolve(ctx, a)
		if err != nil {
			return nil, err
		}
		results[a] = points
	}

	return results, nil
}

// distinct returns addresses without duplicates, keeping first occurrences in order.
func distinct(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
