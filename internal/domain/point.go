package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ParsePos converts a Yandex positional string ("<lon> <lat>") into a Coordinate.
func ParsePos(raw string) (Coordinate, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return Coordinate{}, fmt.Errorf("%w: position %q: want 2 fields, got %d", ErrParse, raw, len(fields))
	}
	// Yandex uses lon,lat order.
	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: position %q: longitude: %w", ErrParse, raw, err)
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: position %q: latitude: %w", ErrParse, raw, err)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// ParsePositions converts every raw position, failing on the first bad one.
// The result is never nil, so an empty input yields an empty slice.
func ParsePositions(raw []string) ([]Coordinate, error) {
	points := make([]Coordinate, 0, len(raw))
	for _, r := range raw {
		p, err := ParsePos(r)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// First returns the best match of a resolution result, or nil when it is empty.
func First(points []Coordinate) *Coordinate {
	if len(points) == 0 {
		return nil
	}
	p := points[0]
	return &p
}
