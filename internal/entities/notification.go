package entities

import "time"

const (
	NotificationTypeStatusChange = "status_change"
	NotificationTypeReminder     = "reminder"
	NotificationTypeAlert        = "alert"
)

type Notification struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	OrderID   string    `db:"order_id"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	IsRead    bool      `db:"is_read"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

// NotificationFilter matches on every non-empty field.
type NotificationFilter struct {
	UserID    string
	CreatedBy string
}
