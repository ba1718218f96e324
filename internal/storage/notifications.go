package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/karrelday/TaraLaba/internal/entities"
)

const notificationColumns = `id, user_id, order_id, message, type, is_read, created_by, created_at`

func (s *PostgresStorage) GetNotification(ctx context.Context, id string) (entities.Notification, error) {
	var notification entities.Notification

	err := s.db.GetContext(ctx, &notification, "SELECT "+notificationColumns+" FROM notifications WHERE id = $1;", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notification, ErrNoRows
		}

		return notification, err
	}

	return notification, nil
}

func (s *PostgresStorage) GetNotifications(ctx context.Context, filter entities.NotificationFilter) ([]entities.Notification, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}

	query := "SELECT " + notificationColumns + " FROM notifications"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC;"

	notifications := []entities.Notification{}

	if err := s.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, err
	}

	return notifications, nil
}

// CreateNotification stores the notification together with the outbox messages it triggers.
func (s *PostgresStorage) CreateNotification(
	ctx context.Context,
	notification entities.Notification,
	messages ...entities.OutboxMessage,
) (entities.Notification, error) {
	var created entities.Notification

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return created, err
	}

	defer tx.Rollback()

	err = tx.GetContext(
		ctx,
		&created,
		`INSERT INTO notifications (user_id, order_id, message, type, created_by)
		VALUES ($1, $2, $3, $4, $5) RETURNING `+notificationColumns+`;`,
		notification.UserID, notification.OrderID, notification.Message, notification.Type, notification.CreatedBy,
	)
	if err != nil {
		if isIntegrityViolation(err) {
			return created, ErrConflict
		}

		return created, err
	}

	if err := enqueueOutbox(ctx, tx, messages...); err != nil {
		return created, err
	}

	if err := tx.Commit(); err != nil {
		return created, err
	}

	return created, nil
}

func (s *PostgresStorage) MarkNotificationRead(ctx context.Context, id string) (entities.Notification, error) {
	var notification entities.Notification

	err := s.db.GetContext(
		ctx,
		&notification,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 RETURNING "+notificationColumns+";",
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notification, ErrNoRows
		}

		return notification, err
	}

	return notification, nil
}
