package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRaw(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("req-1"),
		Value:     []byte(`{"id":"req-1","address":"Samara"}`),
		Topic:     "geocode-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("dispatch")},
		},
	}

	raw := mapMessageToRaw(msg)

	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.JSONEq(t, `{"id":"req-1","address":"Samara"}`, string(raw.Value))
	assert.Equal(t, "geocode-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "dispatch", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC)
	result := domain.GeocodedAddress{
		ID:         "req-1",
		Address:    "Samara",
		Found:      true,
		Point:      &domain.Coordinate{Lat: 53.195538, Lon: 50.101783},
		Points:     []domain.Coordinate{{Lat: 53.195538, Lon: 50.101783}},
		ResolvedAt: now,
	}

	msg, err := serializeToMessage(result)
	require.NoError(t, err)

	assert.Equal(t, []byte("req-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"address":"Samara"`)
	assert.Contains(t, string(msg.Value), `"point":{"lat":53.195538,"lon":50.101783}`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "found", msg.Headers[0].Key)
	assert.Equal(t, []byte("true"), msg.Headers[0].Value)
	assert.Equal(t, "resolved_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_NotFound(t *testing.T) {
	msg, err := serializeToMessage(domain.GeocodedAddress{ID: "req-2", Address: "qwaszx", Points: []domain.Coordinate{}})
	require.NoError(t, err)

	assert.Contains(t, string(msg.Value), `"point":null`)
	assert.Contains(t, string(msg.Value), `"points":[]`)
	assert.Equal(t, []byte("false"), msg.Headers[0].Value)
}

func TestLoadBatch_EmptyIsNoop(t *testing.T) {
	w := &Writer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.NoError(t, w.LoadBatch(context.Background(), nil))
}
