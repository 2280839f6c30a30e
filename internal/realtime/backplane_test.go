package realtime

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odinnomago/valhalla-notify/pkg/metrics"
)

// chanBroker is an in-process stand-in for the Redis backplane: every
// published message loops straight back to subscribers.
type chanBroker struct {
	msgs chan []byte
}

func newChanBroker() *chanBroker {
	return &chanBroker{msgs: make(chan []byte, 16)}
}

func (b *chanBroker) Publish(_ context.Context, _ string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.msgs <- payload
	return nil
}

func (b *chanBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.msgs, nil
}

func (b *chanBroker) Close() error {
	close(b.msgs)
	return nil
}

func TestLocalPublisherDeliversToHub(t *testing.T) {
	h := testHub()
	c := NewClient("u1", nil, zerolog.New(io.Discard))
	h.Register(c)

	p := NewLocalPublisher(h)
	require.NoError(t, p.Publish(context.Background(), "u1", testNotif("n1", "u1")))
	assert.Len(t, c.send, 1)
}

func TestBrokerPublishRoundTripsThroughBackplane(t *testing.T) {
	h := testHub()
	c := NewClient("u1", nil, zerolog.New(io.Discard))
	h.Register(c)

	broker := newChanBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewBackplane(broker, h, zerolog.New(io.Discard)).Run(ctx)
	}()

	p := NewBrokerPublisher(broker)
	require.NoError(t, p.Publish(ctx, "u1", testNotif("n1", "u1")))

	select {
	case frame := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		assert.Equal(t, "notification", env.Type)
		assert.Equal(t, "n1", env.Data.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("frame never reached the hub")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("backplane did not stop on cancel")
	}
}

func TestBackplaneDiscardsMalformedFrames(t *testing.T) {
	h := NewHub(zerolog.New(io.Discard), metrics.NewTestMetrics())
	c := NewClient("u1", nil, zerolog.New(io.Discard))
	h.Register(c)

	broker := newChanBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewBackplane(broker, h, zerolog.New(io.Discard)).Run(ctx)

	broker.msgs <- []byte("not json")
	broker.msgs <- []byte(`{"userId":"u1"}`) // missing notification

	p := NewBrokerPublisher(broker)
	require.NoError(t, p.Publish(ctx, "u1", testNotif("n1", "u1")))

	select {
	case frame := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		assert.Equal(t, "n1", env.Data.ID, "valid frame still delivered after garbage")
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame never delivered")
	}
}
