package kafka

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPayloadBytes(t *testing.T) {
	event := usecase.NewSyncEvent(usecase.EventPushMovement, "b-1", "A1", -20, errors.New("remote sync failed: timeout"))

	data, err := GetPayloadBytes(event)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, event.EventID, payload["event_id"])
	assert.Equal(t, "push_movement", payload["kind"])
	assert.Equal(t, "b-1", payload["branch_id"])
	assert.Equal(t, "A1", payload["code"])
	assert.InDelta(t, -20, payload["delta"], 0)
	assert.Equal(t, "failed", payload["status"])
	assert.Equal(t, "remote sync failed: timeout", payload["error"])
	assert.NotEmpty(t, payload["occurred_at"])
}

func TestGetPayloadBytesOmitsEmpty(t *testing.T) {
	data, err := GetPayloadBytes(usecase.NewSyncEvent(usecase.EventPull, "b-1", "", 0, nil))
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, "ok", payload["status"])
	assert.NotContains(t, payload, "code")
	assert.NotContains(t, payload, "delta")
	assert.NotContains(t, payload, "error")
}

func TestMessageKeyGroupsByProduct(t *testing.T) {
	a := usecase.NewSyncEvent(usecase.EventPushBase, "b-1", "A1", 0, nil)
	b := usecase.NewSyncEvent(usecase.EventPushMovement, "b-1", "A1", 3, nil)

	assert.Equal(t, MessageKey(a), MessageKey(b))
	assert.Equal(t, []byte("b-1:A1"), MessageKey(a))
}

func TestNewProducerWaitsForBroker(t *testing.T) {
	p := NewProducer(logger.NewNopLogger(), &cfg.KafkaCfg{Brokers: []string{"localhost:9092"}, Topic: "events"})
	defer p.Close()

	assert.False(t, p.writer.Async)
	assert.Equal(t, "events", p.writer.Topic)
}
