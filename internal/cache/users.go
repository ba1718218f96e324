package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const userKeyPrefix = "taralaba:user:"

type userSource interface {
	GetUserByID(context.Context, string) (entities.User, error)
}

// Users is a read-through cache in front of the user table. A nil redis client
// turns it into a plain pass-through.
type Users struct {
	source userSource
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewUsers(source userSource, client *redis.Client, ttl time.Duration) *Users {
	return &Users{
		source: source,
		client: client,
		ttl:    ttl,
	}
}

// cachedUser keeps the password hash out of redis.
type cachedUser struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"firstName"`
	MiddleName  string   `json:"middleName"`
	LastName    string   `json:"lastName"`
	UserName    string   `json:"userName"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (u *Users) LoadUser(ctx context.Context, id string) (entities.User, error) {
	if u.client != nil {
		data, err := u.client.Get(ctx, userKeyPrefix+id).Bytes()
		switch {
		case err == nil:
			var cached cachedUser
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached.toEntity(), nil
			}
		case !errors.Is(err, redis.Nil):
			zap.L().Warn("error read user cache", zap.String("userID", id), zap.Error(err))
		}
	}

	user, err := u.source.GetUserByID(ctx, id)
	if err != nil {
		return entities.User{}, err
	}

	if u.client != nil {
		data, err := json.Marshal(fromEntity(user))
		if err == nil {
			err = u.client.Set(ctx, userKeyPrefix+id, data, u.ttl).Err()
		}

		if err != nil {
			zap.L().Warn("error write user cache", zap.String("userID", id), zap.Error(err))
		}
	}

	user.Password = ""

	return user, nil
}

func (u *Users) InvalidateUser(ctx context.Context, id string) {
	if u.client == nil {
		return
	}

	if err := u.client.Del(ctx, userKeyPrefix+id).Err(); err != nil {
		zap.L().Warn("error invalidate user cache", zap.String("userID", id), zap.Error(err))
	}
}

func (u *Users) Ping(ctx context.Context) error {
	if u.client == nil {
		return nil
	}

	return u.client.Ping(ctx).Err()
}

func fromEntity(user entities.User) cachedUser {
	return cachedUser{
		ID:          user.ID,
		FirstName:   user.FirstName,
		MiddleName:  user.MiddleName,
		LastName:    user.LastName,
		UserName:    user.UserName,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.Permissions,
	}
}

func (c cachedUser) toEntity() entities.User {
	return entities.User{
		ID:          c.ID,
		FirstName:   c.FirstName,
		MiddleName:  c.MiddleName,
		LastName:    c.LastName,
		UserName:    c.UserName,
		Email:       c.Email,
		Role:        c.Role,
		Permissions: c.Permissions,
	}
}
