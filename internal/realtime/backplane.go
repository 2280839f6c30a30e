package realtime

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/pkg/messaging"
)

// BackplaneChannel is the pub/sub channel shared by all instances.
const BackplaneChannel = "notify:realtime"

// backplaneMessage is what travels over the broker between instances.
type backplaneMessage struct {
	UserID       string              `json:"userId"`
	Notification *model.Notification `json:"notification"`
}

// Publisher pushes a notification toward a user's open realtime
// connections, wherever they are.
type Publisher interface {
	Publish(ctx context.Context, userID string, n *model.Notification) error
}

// LocalPublisher delivers straight into the in-process hub. It serves
// single-instance runs and tests, where no broker exists.
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(_ context.Context, userID string, n *model.Notification) error {
	p.hub.Publish(userID, n)
	return nil
}

// BrokerPublisher routes frames through the shared pub/sub backplane so
// a notification created on one instance reaches sockets held by any
// instance, including this one (the local Backplane subscription closes
// the loop).
type BrokerPublisher struct {
	broker messaging.Broker
}

func NewBrokerPublisher(broker messaging.Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: broker}
}

func (p *BrokerPublisher) Publish(ctx context.Context, userID string, n *model.Notification) error {
	return p.broker.Publish(ctx, BackplaneChannel, backplaneMessage{
		UserID:       userID,
		Notification: n,
	})
}

// Backplane subscribes to the broker and republishes inbound frames
// into the local hub.
type Backplane struct {
	broker messaging.Broker
	hub    *Hub
	logger zerolog.Logger
}

func NewBackplane(broker messaging.Broker, hub *Hub, logger zerolog.Logger) *Backplane {
	return &Backplane{broker: broker, hub: hub, logger: logger}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (b *Backplane) Run(ctx context.Context) error {
	msgs, err := b.broker.Subscribe(ctx, BackplaneChannel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-msgs:
			if !ok {
				return nil
			}
			var msg backplaneMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				b.logger.Warn().Err(err).Msg("discarding malformed backplane frame")
				continue
			}
			if msg.Notification == nil {
				continue
			}
			b.hub.Publish(msg.UserID, msg.Notification)
		}
	}
}
