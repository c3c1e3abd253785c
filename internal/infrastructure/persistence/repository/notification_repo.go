package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"go.uber.org/zap"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, title, body, category, link, read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		notification.RecipientID,
		notification.Title,
		notification.Body,
		notification.Category,
		notification.Link,
		notification.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	notification.ID = id
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient_id, title, body, category, link, read, read_at, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var readAt sql.NullTime

		err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Body, &n.Category, &n.Link, &n.Read, &readAt, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}

		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND read = 0`

	var count int
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
		r.logger.Error("Failed to count unread notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64, at time.Time) error {
	query := `UPDATE notifications SET read = 1, read_at = ? WHERE id = ? AND recipient_id = ? AND read = 0`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, at, id, recipientID)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
