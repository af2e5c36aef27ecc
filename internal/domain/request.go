package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawMessage is an unprocessed message from the request topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// GeocodeRequest asks for one address to be resolved.
type GeocodeRequest struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// GeocodedAddress is the resolved form published to the result topic.
type GeocodedAddress struct {
	ID         string       `json:"id"`
	Address    string       `json:"address"`
	Found      bool         `json:"found"`
	Point      *Coordinate  `json:"point"`
	Points     []Coordinate `json:"points"`
	ResolvedAt time.Time    `json:"resolved_at"`
}

// ParseGeocodeRequest decodes a request message. The message key is used as
// the request ID when the payload does not carry one.
func ParseGeocodeRequest(raw RawMessage) (GeocodeRequest, error) {
	var req GeocodeRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return GeocodeRequest{}, fmt.Errorf("parse geocode request: %w", err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if strings.TrimSpace(req.Address) == "" {
		return GeocodeRequest{}, errors.New("parse geocode request: address is empty")
	}
	return req, nil
}

// NewGeocodedAddress stamps a resolution result for req.
func NewGeocodedAddress(req GeocodeRequest, points []Coordinate) GeocodedAddress {
	if points == nil {
		points = []Coordinate{}
	}
	return GeocodedAddress{
		ID:         req.ID,
		Address:    req.Address,
		Found:      len(points) > 0,
		Point:      First(points),
		Points:     points,
		ResolvedAt: clock.Now().UTC(),
	}
}
