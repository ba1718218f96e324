package entities

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	TopicEmail              = "email.send"
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
)

type OutboxMessage struct {
	ID           string         `db:"id"`
	Topic        string         `db:"topic"`
	Payload      types.JSONText `db:"payload"`
	Attempts     int            `db:"attempts"`
	LastError    sql.NullString `db:"last_error"`
	CreatedAt    time.Time      `db:"created_at"`
	DispatchedAt sql.NullTime   `db:"dispatched_at"`
}
