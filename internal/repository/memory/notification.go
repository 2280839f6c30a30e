package memory

import (
	"context"
	"sync"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/repository"
)

// notificationRepository is the in-process implementation backing tests
// and single-instance development runs. State does not survive restarts.
type notificationRepository struct {
	mu    sync.RWMutex
	lists map[string][]*model.Notification // head = most recent
}

func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{
		lists: make(map[string][]*model.Notification),
	}
}

func (r *notificationRepository) Create(_ context.Context, n *model.Notification) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *n
	list := append([]*model.Notification{&clone}, r.lists[n.UserID]...)

	evicted := 0
	if len(list) > repository.MaxPerUser {
		evicted = len(list) - repository.MaxPerUser
		list = list[:repository.MaxPerUser]
	}
	r.lists[n.UserID] = list
	return evicted, nil
}

func (r *notificationRepository) List(_ context.Context, userID string, limit int) ([]*model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.lists[userID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	out := make([]*model.Notification, 0, limit)
	for _, n := range list[:limit] {
		clone := *n
		out = append(out, &clone)
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.lists[userID] {
		if n.ID == id {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepository) MarkAllRead(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, n := range r.lists[userID] {
		if !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) Delete(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.lists[userID]
	for i, n := range list {
		if n.ID == id {
			r.lists[userID] = append(list[:i], list[i+1:]...)
			if len(r.lists[userID]) == 0 {
				delete(r.lists, userID)
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepository) UnreadCount(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.lists[userID] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}
