package geocoder

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-geocoder/internal/cachestore"
	"github.com/couchcryptid/storm-data-geocoder/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTTL = time.Hour

func TestEviction_ClearsAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := cachestore.NewMemory()
	m := observability.NewMetricsForTesting()
	g := newTestGeocoder(t, newFakeResolver(), WithStore(store), WithClock(clock), WithCacheTTL(testTTL), WithMetrics(m))
	ctx := context.Background()

	_, err := g.Points(ctx, "Samara")
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(testTTL - time.Minute)
	assert.Equal(t, 1, store.Len())

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheClears))

	_, err = g.Points(ctx, "Samara")
	require.NoError(t, err)
	assert.Equal(t, int64(2), g.RequestCount())
}

func TestEviction_Repeats(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := cachestore.NewMemory()
	m := observability.NewMetricsForTesting()
	g := newTestGeocoder(t, newFakeResolver(), WithStore(store), WithClock(clock), WithCacheTTL(testTTL), WithMetrics(m))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := g.Points(ctx, "Brest")
		require.NoError(t, err)

		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(testTTL)
		want := float64(i)
		require.Eventually(t, func() bool {
			return testutil.ToFloat64(m.CacheClears) == want
		}, time.Second, time.Millisecond)
		assert.Equal(t, 0, store.Len())
	}
}

func TestEviction_NotStartedForNoopStore(t *testing.T) {
	g := newTestGeocoder(t, newFakeResolver(), WithClock(clockwork.NewFakeClock()))
	assert.Nil(t, g.cancel)
	assert.Nil(t, g.evictDone)
}

func TestEviction_DisabledByNonPositiveTTL(t *testing.T) {
	g := newTestGeocoder(t, newFakeResolver(), WithStore(cachestore.NewMemory()), WithCacheTTL(0))
	assert.Nil(t, g.evictDone)
}

func TestClose_StopsEviction(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := cachestore.NewMemory()
	res := newFakeResolver()
	g := New(res, WithStore(store), WithClock(clock), WithCacheTTL(testTTL), WithLogger(discardLogger()))

	_, err := g.Points(context.Background(), "Samara")
	require.NoError(t, err)
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))

	require.NoError(t, g.Close())
	select {
	case <-g.evictDone:
	default:
		t.Fatal("eviction loop still running after Close")
	}

	clock.Advance(2 * testTTL)
	assert.Equal(t, 1, store.Len(), "no clear may happen after Close")
}

func TestClose_Idempotent(t *testing.T) {
	res := newFakeResolver()
	g := New(res, WithStore(cachestore.NewMemory()), WithLogger(discardLogger()))

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	assert.Equal(t, int32(1), res.closed.Load())
}

func TestClose_WhileEvictorWaitsForLock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := cachestore.NewMemory()
	res := newFakeResolver()
	g := New(res, WithStore(store), WithClock(clock), WithCacheTTL(testTTL), WithLogger(discardLogger()))

	gate := res.hold()
	fetched := make(chan error, 1)
	go func() {
		_, err := g.Points(context.Background(), "Samara")
		fetched <- err
	}()
	require.Eventually(t, func() bool { return res.callsFor("Samara") == 1 }, time.Second, time.Millisecond)

	// The timer fires while the fetch holds the lock, so the evictor queues on it.
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(testTTL)

	closed := make(chan error, 1)
	go func() { closed <- g.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close deadlocked on the eviction loop")
	}

	close(gate)
	require.NoError(t, <-fetched)
	assert.Equal(t, 1, store.Len(), "cancelled evictor must not clear")
}
