package geocoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"github.com/couchcryptid/storm-data-geocoder/internal/observability"
	"golang.org/x/sync/semaphore"
)

// engine holds the state shared by single-address and batch resolution and
// by the eviction loop.
type engine struct {
	store    domain.CacheStore
	resolver domain.Resolver
	policy   domain.FailurePolicy
	limit    int
	logger   *slog.Logger
	metrics  *observability.Metrics

	// lock serializes every cache population and clear. It is a weighted
	// semaphore of size one so that waiting for it honors ctx.
	lock     *semaphore.Weighted
	requests atomic.Int64
}

func newEngine(store domain.CacheStore, resolver domain.Resolver, o *options) *engine {
	return &engine{
		store:    store,
		resolver: resolver,
		policy:   o.policy,
		limit:    o.maxConcurrency,
		logger:   o.logger,
		metrics:  o.metrics,
		lock:     semaphore.NewWeighted(1),
	}
}

// resolve returns the result for address. cacheable is false when the
// result is a lenient stand-in for a failure and must not be stored.
func (e *engine) resolve(ctx context.Context, address string) ([]domain.Coordinate, bool, error) {
	if points, ok := e.store.Get(address); ok {
		e.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return points, true, nil
	}
	e.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	if err := ctx.Err(); err != nil {
		return nil, false, canceled(address, err)
	}
	if err := e.lock.Acquire(ctx, 1); err != nil {
		return nil, false, canceled(address, err)
	}
	defer e.lock.Release(1)

	// Another caller may have populated the entry while this one waited.
	if points, ok := e.store.Get(address); ok {
		return points, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, canceled(address, err)
	}

	points, err := e.fetch(ctx, address)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.metrics.GeocodeRequests.WithLabelValues("canceled").Inc()
			return nil, false, canceled(address, ctxErr)
		}
		return e.fail(address, err)
	}
	if len(points) == 0 && e.policy == domain.ReturnError {
		return e.fail(address, domain.ErrEmptyResult)
	}

	if len(points) == 0 {
		e.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	} else {
		e.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	e.store.Set(address, points)
	e.metrics.CacheEntries.Set(float64(e.store.Len()))
	return points, true, nil
}

// fetch performs the one network call for address and parses its response.
// The request counter moves when the call is dispatched, not when it returns.
func (e *engine) fetch(ctx context.Context, address string) ([]domain.Coordinate, error) {
	e.requests.Add(1)
	raw, err := e.resolver.FetchRaw(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrParse) || errors.Is(err, domain.ErrTransport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return domain.ParsePositions(raw)
}

// fail applies the failure policy. Nothing is cached on either branch, so
// the next call for address goes back to the service.
func (e *engine) fail(address string, cause error) ([]domain.Coordinate, bool, error) {
	if errors.Is(cause, domain.ErrEmptyResult) {
		e.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	} else {
		e.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	}

	if e.policy == domain.ReturnError {
		return nil, false, &domain.ResolveError{Address: address, Err: cause}
	}
	e.logger.Warn("geocoding failed, returning empty result",
		"address", address,
		"error", cause,
	)
	return []domain.Coordinate{}, false, nil
}

// clear drops every cache entry under the shared lock. A ctx cancelled while
// waiting for the lock leaves the cache untouched.
func (e *engine) clear(ctx context.Context) (int, error) {
	if err := e.lock.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer e.lock.Release(1)

	// Acquire may succeed on an already-cancelled ctx.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := e.store.Len()
	e.store.Clear()
	e.metrics.CacheClears.Inc()
	e.metrics.CacheEntries.Set(0)
	return n, nil
}

func canceled(address string, err error) error {
	return fmt.Errorf("geocode %q: %w", address, err)
}
