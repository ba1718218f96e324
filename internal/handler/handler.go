package handler

import (
	"context"
	"time"

	"github.com/karrelday/TaraLaba/internal/orderflow"
	"github.com/karrelday/TaraLaba/internal/storage"
)

type tokenGenerator interface {
	Generate(userID string) (string, error)
}

type userCache interface {
	InvalidateUser(context.Context, string)
}

type Handler struct {
	storage storage.Storage
	flow    *orderflow.Flow
	tokens  tokenGenerator
	users   userCache
	now     func() time.Time
}

func NewHandler(storage storage.Storage, flow *orderflow.Flow, tokens tokenGenerator, users userCache) *Handler {
	return &Handler{
		storage: storage,
		flow:    flow,
		tokens:  tokens,
		users:   users,
		now:     time.Now,
	}
}
