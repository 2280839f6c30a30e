package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/repository"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

// notificationRow maps the notifications table; data and actions are
// stored as jsonb.
type notificationRow struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	Type         string     `db:"type"`
	Title        string     `db:"title"`
	Message      string     `db:"message"`
	Data         []byte     `db:"data"`
	Priority     string     `db:"priority"`
	Category     string     `db:"category"`
	IsRead       bool       `db:"is_read"`
	IsActionable bool       `db:"is_actionable"`
	Actions      []byte     `db:"actions"`
	CreatedAt    time.Time  `db:"created_at"`
	ExpiresAt    *time.Time `db:"expires_at"`
}

func (row *notificationRow) toModel() (*model.Notification, error) {
	n := &model.Notification{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         model.Type(row.Type),
		Title:        row.Title,
		Message:      row.Message,
		Priority:     model.Priority(row.Priority),
		Category:     model.Category(row.Category),
		IsRead:       row.IsRead,
		IsActionable: row.IsActionable,
		CreatedAt:    row.CreatedAt,
		ExpiresAt:    row.ExpiresAt,
	}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to decode notification data: %w", err)
		}
	}
	if len(row.Actions) > 0 {
		if err := json.Unmarshal(row.Actions, &n.Actions); err != nil {
			return nil, fmt.Errorf("failed to decode notification actions: %w", err)
		}
	}
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) (int, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return 0, fmt.Errorf("failed to encode notification data: %w", err)
	}
	actions, err := json.Marshal(n.Actions)
	if err != nil {
		return 0, fmt.Errorf("failed to encode notification actions: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO notifications (
			id, user_id, type, title, message, data, priority, category,
			is_read, is_actionable, actions, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := tx.ExecContext(ctx, insert,
		n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.Priority, n.Category,
		n.IsRead, n.IsActionable, actions, n.CreatedAt, n.ExpiresAt,
	); err != nil {
		return 0, fmt.Errorf("failed to insert notification: %w", err)
	}

	// Oldest entries past the per-user cap are gone for good; there is
	// no archive tier under this table.
	evict := `
		DELETE FROM notifications
		WHERE user_id = $1
		AND id NOT IN (
			SELECT id FROM notifications
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)
	`
	res, err := tx.ExecContext(ctx, evict, n.UserID, repository.MaxPerUser)
	if err != nil {
		return 0, fmt.Errorf("failed to evict notifications: %w", err)
	}
	evicted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count evicted notifications: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit notification: %w", err)
	}
	return int(evicted), nil
}

func (r *notificationRepository) List(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > repository.MaxPerUser {
		limit = repository.MaxPerUser
	}

	query := `
		SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*model.Notification, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count updated rows: %w", err)
	}
	return affected > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count updated rows: %w", err)
	}
	return int(affected), nil
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	query := `DELETE FROM notifications WHERE user_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return affected > 0, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
