package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/karrelday/TaraLaba/internal/entities"
)

const userColumns = `id, first_name, middle_name, last_name, user_name, email, password, role, permissions, created_at, last_login`

func (s *PostgresStorage) GetUserByID(ctx context.Context, id string) (entities.User, error) {
	var user entities.User

	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1;", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNoRows
		}

		return user, err
	}

	return user, nil
}

func (s *PostgresStorage) GetUserByUserName(ctx context.Context, userName string) (entities.User, error) {
	var user entities.User

	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE user_name = $1;", userName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNoRows
		}

		return user, err
	}

	return user, nil
}

func (s *PostgresStorage) GetUsers(ctx context.Context) ([]entities.User, error) {
	users := []entities.User{}

	err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY created_at ASC;")
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (s *PostgresStorage) CreateUser(ctx context.Context, user entities.User) (entities.User, error) {
	var created entities.User

	err := s.db.GetContext(
		ctx,
		&created,
		`INSERT INTO users (first_name, middle_name, last_name, user_name, email, password, role, permissions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+userColumns+`;`,
		user.FirstName, user.MiddleName, user.LastName, user.UserName, user.Email, user.Password, user.Role, user.Permissions,
	)
	if err != nil {
		if isIntegrityViolation(err) {
			return created, ErrConflict
		}

		return created, err
	}

	return created, nil
}

func (s *PostgresStorage) UpdateUser(ctx context.Context, user entities.User) (entities.User, error) {
	var updated entities.User

	err := s.db.GetContext(
		ctx,
		&updated,
		`UPDATE users SET first_name = $1, middle_name = $2, last_name = $3, user_name = $4, email = $5,
			password = $6, role = $7, permissions = $8
		WHERE id = $9 RETURNING `+userColumns+`;`,
		user.FirstName, user.MiddleName, user.LastName, user.UserName, user.Email,
		user.Password, user.Role, user.Permissions, user.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return updated, ErrNoRows
		}

		if isIntegrityViolation(err) {
			return updated, ErrConflict
		}

		return updated, err
	}

	return updated, nil
}

func (s *PostgresStorage) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1;", id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func (s *PostgresStorage) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1;", id)
	return err
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNoRows
	}

	return nil
}
