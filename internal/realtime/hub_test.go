package realtime

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/pkg/metrics"
)

func testHub() *Hub {
	return NewHub(zerolog.New(io.Discard), metrics.NewTestMetrics())
}

func testNotif(id, userID string) *model.Notification {
	return &model.Notification{
		ID:     id,
		UserID: userID,
		Type:   model.TypeNewFollower,
		Title:  "Novo Seguidor",
	}
}

func TestHubRegisterAndPublish(t *testing.T) {
	h := testHub()
	c := NewClient("u1", nil, zerolog.New(io.Discard))
	h.Register(c)

	delivered := h.Publish("u1", testNotif("n1", "u1"))
	assert.Equal(t, 1, delivered)

	frame := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, "notification", env.Type)
	assert.Equal(t, "n1", env.Data.ID)
}

func TestHubPublishToUserWithoutConnections(t *testing.T) {
	h := testHub()
	assert.Zero(t, h.Publish("nobody", testNotif("n1", "nobody")))
}

func TestHubPublishOnlyToTargetUser(t *testing.T) {
	h := testHub()
	c1 := NewClient("u1", nil, zerolog.New(io.Discard))
	c2 := NewClient("u2", nil, zerolog.New(io.Discard))
	h.Register(c1)
	h.Register(c2)

	h.Publish("u1", testNotif("n1", "u1"))

	assert.Len(t, c1.send, 1)
	assert.Empty(t, c2.send)
}

func TestHubMultipleConnectionsPerUser(t *testing.T) {
	h := testHub()
	c1 := NewClient("u1", nil, zerolog.New(io.Discard))
	c2 := NewClient("u1", nil, zerolog.New(io.Discard))
	h.Register(c1)
	h.Register(c2)
	assert.Equal(t, 2, h.ConnectionCount("u1"))

	delivered := h.Publish("u1", testNotif("n1", "u1"))
	assert.Equal(t, 2, delivered)
	assert.Len(t, c1.send, 1)
	assert.Len(t, c2.send, 1)
}

func TestHubUnregisterDropsEmptySet(t *testing.T) {
	h := testHub()
	c := NewClient("u1", nil, zerolog.New(io.Discard))
	h.Register(c)
	require.Equal(t, 1, h.ConnectionCount("u1"))

	h.Unregister(c)
	assert.Zero(t, h.ConnectionCount("u1"))

	h.mu.RLock()
	_, ok := h.clients["u1"]
	h.mu.RUnlock()
	assert.False(t, ok, "empty set must be removed")

	// unregistering again is a no-op
	h.Unregister(c)
}

func TestHubUnregisteredClientGetsNothing(t *testing.T) {
	h := testHub()
	c := NewClient("u1", nil, zerolog.New(io.Discard))
	h.Register(c)
	h.Unregister(c)

	assert.Zero(t, h.Publish("u1", testNotif("n1", "u1")))
}

func TestHubSlowClientDisconnected(t *testing.T) {
	h := testHub()
	c := NewClient("u1", nil, zerolog.New(io.Discard))
	h.Register(c)

	// nothing drains the buffer, so it eventually overflows
	for i := 0; i < sendBuffer; i++ {
		assert.Equal(t, 1, h.Publish("u1", testNotif("n", "u1")))
	}
	assert.Zero(t, h.Publish("u1", testNotif("overflow", "u1")))
	assert.Zero(t, h.ConnectionCount("u1"), "slow client removed from registry")
}

func TestClientTrySendAfterClose(t *testing.T) {
	c := NewClient("u1", nil, zerolog.New(io.Discard))
	c.Close()
	assert.False(t, c.trySend([]byte("frame")))
}
