package geocoder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-geocoder/internal/cachestore"
	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"github.com/couchcryptid/storm-data-geocoder/internal/observability"
	"github.com/stretchr/testify/require"
)

// Positions as the service returns them: "<lon> <lat>".
const (
	samaraPos  = "50.101783 53.195538"
	brestPos   = "23.685053 52.097622"
	yakutskPos = "129.732663 62.028103"
)

// --- fake resolver ---

type fakeResolver struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	calls     map[string]int
	gate      chan struct{} // when set, FetchRaw blocks until closed or ctx is done
	reachable bool
	closed    atomic.Int32
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		responses: map[string][]string{
			"Samara":  {samaraPos, "50.2 53.3", "50.3 53.4", "50.4 53.5"},
			"Brest":   {brestPos},
			"Yakutsk": {yakutskPos},
			"qwaszx":  {},
		},
		errs:      map[string]error{},
		calls:     map[string]int{},
		reachable: true,
	}
}

func (f *fakeResolver) FetchRaw(ctx context.Context, address string) ([]string, error) {
	f.mu.Lock()
	f.calls[address]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[address]; ok {
		return nil, err
	}
	raw, ok := f.responses[address]
	if !ok {
		return []string{}, nil
	}
	return raw, nil
}

func (f *fakeResolver) CheckReachable(_ context.Context, _ time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachable
}

func (f *fakeResolver) Close() error {
	f.closed.Add(1)
	return nil
}

func (f *fakeResolver) callsFor(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[address]
}

func (f *fakeResolver) hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeResolver) failWith(address string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[address] = err
}

func (f *fakeResolver) clearFailure(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, address)
}

func (f *fakeResolver) setReachable(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reachable = v
}

// --- recording store ---

type recordingStore struct {
	*cachestore.Memory
	mu          sync.Mutex
	setManyArgs []map[string][]domain.Coordinate
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Memory: cachestore.NewMemory()}
}

func (s *recordingStore) SetMany(entries map[string][]domain.Coordinate) {
	s.mu.Lock()
	s.setManyArgs = append(s.setManyArgs, entries)
	s.mu.Unlock()
	s.Memory.SetMany(entries)
}

func (s *recordingStore) setManyCalls() []map[string][]domain.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string][]domain.Coordinate(nil), s.setManyArgs...)
}

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGeocoder(t *testing.T, res domain.Resolver, opts ...Option) *Geocoder {
	t.Helper()
	base := []Option{WithLogger(discardLogger()), WithMetrics(observability.NewMetricsForTesting())}
	g := New(res, append(base, opts...)...)
	t.Cleanup(func() {
		require.NoError(t, g.Close())
	})
	return g
}

var errBoom = errors.New("boom")
