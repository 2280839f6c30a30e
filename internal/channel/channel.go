package channel

import (
	"context"

	"github.com/odinnomago/valhalla-notify/internal/model"
)

// Channel names one of the external delivery paths.
type Channel string

const (
	Push  Channel = "push"
	Email Channel = "email"
	SMS   Channel = "sms"
)

// Sender delivers a notification over one external channel. Send is
// best-effort: no retry, no acknowledgement beyond the returned error.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, n *model.Notification) error
}
