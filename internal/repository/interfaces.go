package repository

import (
	"context"

	"github.com/odinnomago/valhalla-notify/internal/model"
)

// MaxPerUser caps each user's stored notifications. Create evicts the
// oldest entries beyond this; evicted notifications are gone for good.
const MaxPerUser = 100

// NotificationRepository stores per-user notification lists. Lookups of
// unknown users or IDs are normal outcomes (false/0), never errors.
type NotificationRepository interface {
	// Create inserts the notification and evicts the oldest entries
	// beyond MaxPerUser, returning how many were evicted.
	Create(ctx context.Context, n *model.Notification) (evicted int, err error)
	// List returns up to limit notifications, most recent first.
	// limit <= 0 means MaxPerUser.
	List(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	// MarkRead flips isRead to true. Idempotent; false means the
	// notification does not exist for that user.
	MarkRead(ctx context.Context, userID, id string) (bool, error)
	// MarkAllRead flips every unread notification and returns how many
	// it flipped.
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// PreferenceRepository stores per-user delivery preferences. Get never
// fails on an unknown user; it returns the product defaults.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*model.Preferences, error)
	Upsert(ctx context.Context, prefs *model.Preferences) error
}
