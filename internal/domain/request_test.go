package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeocodeRequest(t *testing.T) {
	req, err := ParseGeocodeRequest(RawMessage{
		Key:   []byte("k-1"),
		Value: []byte(`{"id":"req-1","address":"Samara"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, GeocodeRequest{ID: "req-1", Address: "Samara"}, req)
}

func TestParseGeocodeRequest_KeyAsID(t *testing.T) {
	req, err := ParseGeocodeRequest(RawMessage{
		Key:   []byte("k-2"),
		Value: []byte(`{"address":"Brest"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "k-2", req.ID)
}

func TestParseGeocodeRequest_Invalid(t *testing.T) {
	_, err := ParseGeocodeRequest(RawMessage{Value: []byte("not json")})
	assert.Error(t, err)

	_, err = ParseGeocodeRequest(RawMessage{Value: []byte(`{"id":"x","address":"   "}`)})
	assert.ErrorContains(t, err, "address is empty")
}

func TestNewGeocodedAddress(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() {
		SetClock(nil)
	})

	req := GeocodeRequest{ID: "req-1", Address: "Samara"}
	out := NewGeocodedAddress(req, []Coordinate{{Lat: 53.195538, Lon: 50.101783}, {Lat: 53.2, Lon: 50.2}})

	assert.True(t, out.Found)
	require.NotNil(t, out.Point)
	assert.Equal(t, 53.195538, out.Point.Lat)
	assert.Len(t, out.Points, 2)
	assert.Equal(t, fakeClock.Now(), out.ResolvedAt)
}

func TestNewGeocodedAddress_NotFound(t *testing.T) {
	out := NewGeocodedAddress(GeocodeRequest{ID: "req-2", Address: "qwaszx"}, nil)

	assert.False(t, out.Found)
	assert.Nil(t, out.Point)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"points":[]`)
	assert.Contains(t, string(data), `"point":null`)
}
