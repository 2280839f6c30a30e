package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/realtime"
	"github.com/odinnomago/valhalla-notify/internal/repository"
	"github.com/odinnomago/valhalla-notify/internal/service/delivery"
	"github.com/odinnomago/valhalla-notify/internal/template"
	apperrors "github.com/odinnomago/valhalla-notify/pkg/errors"
	"github.com/odinnomago/valhalla-notify/pkg/logger"
	"github.com/odinnomago/valhalla-notify/pkg/metrics"
)

type Service interface {
	// Create renders, stores, fans out, and queues delivery for a new
	// notification. A failed fan-out or delivery enqueue never fails
	// the create; the notification is already stored.
	Create(ctx context.Context, userID string, t model.Type, data map[string]interface{}) (*model.Notification, error)
	List(ctx context.Context, userID string, limit int) ([]*model.Notification, int, error)
	MarkRead(ctx context.Context, userID, id string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	// ProcessAction handles a user-triggered action button. Actual
	// dispatch (accepting a booking, say) belongs to the owning
	// platform service; this records and acknowledges.
	ProcessAction(ctx context.Context, notificationID, action string, data map[string]interface{}) (string, error)
}

type service struct {
	repo      repository.NotificationRepository
	templates *template.Registry
	publisher realtime.Publisher
	queue     delivery.Enqueuer
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(
	repo repository.NotificationRepository,
	templates *template.Registry,
	publisher realtime.Publisher,
	queue delivery.Enqueuer,
	lg *logger.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		repo:      repo,
		templates: templates,
		publisher: publisher,
		queue:     queue,
		logger:    lg,
		metrics:   m,
	}
}

func (s *service) Create(ctx context.Context, userID string, t model.Type, data map[string]interface{}) (*model.Notification, error) {
	if userID == "" {
		return nil, apperrors.BadRequest("userId is required", nil)
	}

	rendered, err := s.templates.Render(t, data)
	if err != nil {
		s.metrics.TemplateFailures.Inc()
		if errors.Is(err, template.ErrUnknownType) {
			return nil, apperrors.BadRequest("unknown notification type", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to render notification: %w", err))
	}

	n := &model.Notification{
		ID:           uuid.New().String(),
		UserID:       userID,
		Type:         t,
		Title:        rendered.Title,
		Message:      rendered.Message,
		Data:         data,
		Priority:     rendered.Priority,
		Category:     rendered.Category,
		IsActionable: rendered.IsActionable,
		Actions:      rendered.Actions,
		CreatedAt:    time.Now().UTC(),
	}

	evicted, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to store notification: %w", err))
	}
	s.metrics.NotificationsCreated.Inc()
	if evicted > 0 {
		s.metrics.NotificationsEvicted.Add(float64(evicted))
	}

	if err := s.publisher.Publish(ctx, userID, n); err != nil {
		s.logger.ZL.Error().Err(err).
			Str("notification_id", n.ID).
			Str("user_id", userID).
			Msg("realtime publish failed")
	}

	s.queue.Enqueue(n)

	return n, nil
}

func (s *service) List(ctx context.Context, userID string, limit int) ([]*model.Notification, int, error) {
	notifications, err := s.repo.List(ctx, userID, limit)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to list notifications: %w", err))
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to count unread notifications: %w", err))
	}
	return notifications, unread, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	ok, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return false, apperrors.Internal(fmt.Errorf("failed to mark notification read: %w", err))
	}
	return ok, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("failed to mark notifications read: %w", err))
	}
	return count, nil
}

func (s *service) Delete(ctx context.Context, userID, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return false, apperrors.Internal(fmt.Errorf("failed to delete notification: %w", err))
	}
	return ok, nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("failed to count unread notifications: %w", err))
	}
	return count, nil
}

func (s *service) ProcessAction(_ context.Context, notificationID, action string, data map[string]interface{}) (string, error) {
	if notificationID == "" || action == "" {
		return "", apperrors.BadRequest("notificationId and action are required", nil)
	}

	s.logger.ZL.Info().
		Str("notification_id", notificationID).
		Str("action", action).
		Interface("data", data).
		Msg("notification action triggered")

	return fmt.Sprintf("action %s processed", action), nil
}
