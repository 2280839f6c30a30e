package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/repository"
)

func newNotification(id, userID string) *model.Notification {
	return &model.Notification{
		ID:        id,
		UserID:    userID,
		Type:      model.TypeNewFollower,
		Category:  model.CategorySocial,
		Priority:  model.PriorityLow,
		Title:     "Novo Seguidor",
		Message:   "Alguém começou a seguir você",
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAndListOrdering(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, newNotification(fmt.Sprintf("n%d", i), "u1"))
		require.NoError(t, err)
	}

	list, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, "n1", list[1].ID)
	assert.Equal(t, "n0", list[2].ID)
}

func TestCreateEvictsBeyondCap(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	for i := 0; i < repository.MaxPerUser; i++ {
		evicted, err := repo.Create(ctx, newNotification(fmt.Sprintf("n%d", i), "u1"))
		require.NoError(t, err)
		assert.Zero(t, evicted)
	}

	evicted, err := repo.Create(ctx, newNotification("overflow", "u1"))
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	list, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, repository.MaxPerUser)
	assert.Equal(t, "overflow", list[0].ID)
	// n0 was the oldest and is gone
	assert.Equal(t, "n1", list[repository.MaxPerUser-1].ID)
}

func TestListLimit(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, newNotification(fmt.Sprintf("n%d", i), "u1"))
		require.NoError(t, err)
	}

	list, err := repo.List(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n4", list[0].ID)

	list, err = repo.List(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMarkReadIdempotent(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newNotification("n1", "u1"))
	require.NoError(t, err)

	ok, err := repo.MarkRead(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.True(t, ok)

	// second call still succeeds, state stays read
	ok, err = repo.MarkRead(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	assert.True(t, list[0].IsRead)

	ok, err = repo.MarkRead(ctx, "u1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkRead(ctx, "other", "n1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkAllRead(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := repo.Create(ctx, newNotification(fmt.Sprintf("n%d", i), "u1"))
		require.NoError(t, err)
	}
	_, err := repo.MarkRead(ctx, "u1", "n0")
	require.NoError(t, err)

	count, err := repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	unread, err := repo.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestDelete(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newNotification("n1", "u1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newNotification("n2", "u1"))
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n2", list[0].ID)
}

func TestUnreadCount(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	count, err := repo.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, newNotification(fmt.Sprintf("n%d", i), "u1"))
		require.NoError(t, err)
	}
	_, err = repo.MarkRead(ctx, "u1", "n1")
	require.NoError(t, err)

	count, err = repo.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListReturnsClones(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newNotification("n1", "u1"))
	require.NoError(t, err)

	list, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	list[0].IsRead = true

	fresh, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	assert.False(t, fresh[0].IsRead)
}

func TestUsersAreIsolated(t *testing.T) {
	repo := NewNotificationRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newNotification("n1", "u1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newNotification("n2", "u2"))
	require.NoError(t, err)

	list, err := repo.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)
}
