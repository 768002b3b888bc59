package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(pool)}
}

func scanNotification(row base.Scanner) (*model.Notification, error) {
	var n model.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Text, &n.ReadAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	err := r.QueryRow(ctx, `
		INSERT INTO notifications (user_id, kind, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, n.UserID, n.Kind, n.Text).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *NotificationRepository) GetUnread(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
	rows, err := r.Query(ctx, `
		SELECT id, user_id, kind, text, read_at, created_at
		FROM notifications
		WHERE user_id = $1 AND read_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get unread notifications: %w", err)
	}

	items, err := base.CollectAll(rows, scanNotification)
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}

	return items, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE notifications SET read_at = $1 WHERE user_id = $2 AND read_at IS NULL`, at, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}

	return affected, nil
}
