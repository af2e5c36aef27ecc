package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"github.com/couchcryptid/storm-data-geocoder/internal/geocoder"
)

// BatchGeocoder is the part of *geocoder.Geocoder the pipeline needs.
type BatchGeocoder interface {
	Points(ctx context.Context, address string) ([]domain.Coordinate, error)
	PointsByAddresses(ctx context.Context, addresses []string, progress geocoder.Progress) (map[string][]domain.Coordinate, error)
}

// Outcome is the resolution of one request. Err is set when the request
// could not be resolved and Result must not be published.
type Outcome struct {
	Result domain.GeocodedAddress
	Err    error
}

// GeocodeTransformer implements Transformer by resolving a whole batch of
// requests with one geocoder call.
type GeocodeTransformer struct {
	geocoder BatchGeocoder
	logger   *slog.Logger
}

// NewTransformer creates a GeocodeTransformer over g.
func NewTransformer(g BatchGeocoder, logger *slog.Logger) *GeocodeTransformer {
	return &GeocodeTransformer{
		geocoder: g,
		logger:   logger,
	}
}

// TransformBatch returns one Outcome per request, in order. A batch that fails
// as a whole is retried request by request so one bad address cannot hold
// back the rest. The error is non-nil only when ctx ends.
func (t *GeocodeTransformer) TransformBatch(ctx context.Context, reqs []domain.GeocodeRequest) ([]Outcome, error) {
	addresses := make([]string, len(reqs))
	for i, req := range reqs {
		addresses[i] = req.Address
	}

	resolved, err := t.geocoder.PointsByAddresses(ctx, addresses, nil)
	if err == nil {
		out := make([]Outcome, len(reqs))
		for i, req := range reqs {
			out[i] = Outcome{Result: domain.NewGeocodedAddress(req, resolved[req.Address])}
		}
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	t.logger.Warn("batch resolution failed, resolving individually", "error", err, "batch_size", len(reqs))
	return t.transformEach(ctx, reqs)
}

func (t *GeocodeTransformer) transformEach(ctx context.Context, reqs []domain.GeocodeRequest) ([]Outcome, error) {
	out := make([]Outcome, len(reqs))
	for i, req := range reqs {
		points, err := t.geocoder.Points(ctx, req.Address)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			out[i] = Outcome{Err: err}
			continue
		}
		out[i] = Outcome{Result: domain.NewGeocodedAddress(req, points)}
	}
	return out, nil
}
