package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/lib/pq"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNoRows   = errors.New("no rows")
)

//go:generate mockgen -source=postgres.go -destination=mock_storage.go -package=storage
type Storage interface {
	GetUserByID(context.Context, string) (entities.User, error)
	GetUserByUserName(context.Context, string) (entities.User, error)
	GetUsers(context.Context) ([]entities.User, error)
	CreateUser(context.Context, entities.User) (entities.User, error)
	UpdateUser(context.Context, entities.User) (entities.User, error)
	DeleteUser(context.Context, string) error
	UpdateLastLogin(context.Context, string) error

	GetOrder(context.Context, string) (entities.Order, error)
	GetOrders(context.Context, entities.OrderFilter) ([]entities.Order, error)
	CreateOrder(context.Context, entities.Order) (entities.Order, error)
	UpdateOrderStatus(context.Context, string, string) (entities.Order, error)
	UpdateOrderPayment(context.Context, string, entities.Payment) (entities.Order, error)
	DeleteOrder(context.Context, string) error

	GetNotification(context.Context, string) (entities.Notification, error)
	GetNotifications(context.Context, entities.NotificationFilter) ([]entities.Notification, error)
	CreateNotification(context.Context, entities.Notification, ...entities.OutboxMessage) (entities.Notification, error)
	MarkNotificationRead(context.Context, string) (entities.Notification, error)

	EnqueueOutbox(context.Context, ...entities.OutboxMessage) error
	GetPendingOutbox(context.Context, int, int) ([]entities.OutboxMessage, error)
	MarkOutboxDispatched(context.Context, string) error
	MarkOutboxFailed(context.Context, string, string) error

	Ping(context.Context) error
}

type PostgresStorage struct {
	db *sqlx.DB
}

func NewPostgresStorage(ctx context.Context, db *sqlx.DB) (*PostgresStorage, error) {
	storage := &PostgresStorage{db: db}

	err := storage.runMigrations(ctx)
	if err != nil {
		return nil, err
	}

	return storage, nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isIntegrityViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pgerrcode.IsIntegrityConstraintViolation(string(pqErr.Code))
}

func (s *PostgresStorage) runMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	migrations := []string{
		`
		CREATE TABLE IF NOT EXISTS users(
			id uuid DEFAULT gen_random_uuid() PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			middle_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			user_name TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role VARCHAR NOT NULL DEFAULT 'customer',
			permissions TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login TIMESTAMPTZ
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS orders(
			id uuid DEFAULT gen_random_uuid() PRIMARY KEY,
			number VARCHAR NOT NULL UNIQUE,
			customer_id uuid NOT NULL,
			customer_name TEXT NOT NULL DEFAULT '',
			laundry_weight DOUBLE PRECISION NOT NULL,
			amount_to_pay INT NOT NULL DEFAULT 0,
			service_type VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'Pending',
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			payment_method VARCHAR,
			payment_acc_number VARCHAR,
			payment_acc_name VARCHAR,
			paid_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMPTZ,
			CONSTRAINT fk_customer FOREIGN KEY(customer_id) REFERENCES users(id) ON DELETE CASCADE
		);
		`,
		`CREATE INDEX IF NOT EXISTS orders_customer_id_idx ON orders(customer_id);`,
		`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders(status);`,
		`
		CREATE TABLE IF NOT EXISTS notifications(
			id uuid DEFAULT gen_random_uuid() PRIMARY KEY,
			user_id uuid NOT NULL,
			order_id uuid NOT NULL,
			message TEXT NOT NULL,
			type VARCHAR NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_by uuid NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT fk_user FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT fk_order FOREIGN KEY(order_id) REFERENCES orders(id) ON DELETE CASCADE,
			CONSTRAINT fk_creator FOREIGN KEY(created_by) REFERENCES users(id) ON DELETE CASCADE
		);
		`,
		`CREATE INDEX IF NOT EXISTS notifications_user_id_idx ON notifications(user_id, created_at DESC);`,
		`
		CREATE TABLE IF NOT EXISTS outbox(
			id uuid DEFAULT gen_random_uuid() PRIMARY KEY,
			topic VARCHAR NOT NULL,
			payload JSONB NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			dispatched_at TIMESTAMPTZ
		);
		`,
		`CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox(created_at) WHERE dispatched_at IS NULL;`,
	}

	for _, migration := range migrations {
		if _, err := tx.ExecContext(ctx, migration); err != nil {
			return err
		}
	}

	return tx.Commit()
}
