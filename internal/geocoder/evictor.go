package geocoder

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCacheTTL is how long the whole cache lives before it is cleared.
const DefaultCacheTTL = 30 * 24 * time.Hour

// evictor clears the entire cache every ttl. It is cache-wide expiry, not
// per-entry.
type evictor struct {
	engine *engine
	clock  clockwork.Clock
	ttl    time.Duration
	logger *slog.Logger
	done   chan struct{}
}

func newEvictor(e *engine, clock clockwork.Clock, ttl time.Duration, logger *slog.Logger) *evictor {
	return &evictor{
		engine: e,
		clock:  clock,
		ttl:    ttl,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// run loops until ctx is cancelled, then closes done. Cancellation during the
// wait or while queued for the lock exits without clearing.
func (v *evictor) run(ctx context.Context) {
	defer close(v.done)
	v.logger.Debug("cache eviction started", "ttl", v.ttl)

	for {
		timer := v.clock.NewTimer(v.ttl)
		select {
		case <-ctx.Done():
			timer.Stop()
			v.logger.Debug("cache eviction stopped", "reason", ctx.Err())
			return
		case <-timer.Chan():
		}

		n, err := v.engine.clear(ctx)
		if err != nil {
			v.logger.Debug("cache eviction stopped", "reason", err)
			return
		}
		v.logger.Info("geocode cache cleared", "entries", n, "ttl", v.ttl)
	}
}
