package geocoder

import (
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-geocoder/internal/cachestore"
	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"github.com/couchcryptid/storm-data-geocoder/internal/observability"
	"github.com/jonboulle/clockwork"
)

type options struct {
	store          domain.CacheStore
	policy         domain.FailurePolicy
	ttl            time.Duration
	clock          clockwork.Clock
	maxConcurrency int
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// Option configures a Geocoder.
type Option func(*options)

// WithStore sets the cache backend. The default never caches.
func WithStore(store domain.CacheStore) Option {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
	}
}

// WithFailurePolicy sets how unresolvable addresses are reported.
func WithFailurePolicy(p domain.FailurePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithCacheTTL sets the interval between full cache clears. A non-positive
// ttl disables eviction.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithClock replaces the time source driving eviction.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMaxConcurrency caps the goroutines a batch runs at once. Zero means
// one goroutine per uncached address.
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records core metrics into m instead of an unregistered set.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func defaultOptions() *options {
	return &options{
		store:   cachestore.NewNoop(),
		policy:  domain.ReturnEmpty,
		ttl:     DefaultCacheTTL,
		clock:   clockwork.NewRealClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: observability.NewMetricsWith(nil),
	}
}
