package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/karrelday/TaraLaba/internal/entities"
)

const outboxColumns = `id, topic, payload, attempts, last_error, created_at, dispatched_at`

func (s *PostgresStorage) EnqueueOutbox(ctx context.Context, messages ...entities.OutboxMessage) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := enqueueOutbox(ctx, tx, messages...); err != nil {
		return err
	}

	return tx.Commit()
}

func enqueueOutbox(ctx context.Context, tx *sqlx.Tx, messages ...entities.OutboxMessage) error {
	for _, message := range messages {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO outbox (topic, payload) VALUES ($1, $2);`,
			message.Topic, message.Payload,
		); err != nil {
			return err
		}
	}

	return nil
}

// GetPendingOutbox returns undispatched messages oldest first, skipping those
// that already used up their attempts.
func (s *PostgresStorage) GetPendingOutbox(ctx context.Context, limit int, maxAttempts int) ([]entities.OutboxMessage, error) {
	messages := []entities.OutboxMessage{}

	err := s.db.SelectContext(
		ctx,
		&messages,
		`SELECT `+outboxColumns+` FROM outbox
		WHERE dispatched_at IS NULL AND attempts < $1
		ORDER BY created_at ASC
		LIMIT $2;`,
		maxAttempts, limit,
	)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *PostgresStorage) MarkOutboxDispatched(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE outbox SET dispatched_at = CURRENT_TIMESTAMP, last_error = NULL WHERE id = $1;`, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func (s *PostgresStorage) MarkOutboxFailed(ctx context.Context, id string, reason string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE outbox SET attempts = attempts + 1, last_error = $1 WHERE id = $2;`, reason, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
