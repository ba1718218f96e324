package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/storage"
	"go.uber.org/zap"
)

type UserKey struct{}

const (
	TokenCookieName = "token"
	UserIDHeader    = "user-id"
)

var (
	errNoCredentials      = errors.New("no credentials")
	errInvalidCredentials = errors.New("invalid credentials")
)

type UserLoader interface {
	LoadUser(context.Context, string) (entities.User, error)
}

type TokenParser interface {
	Parse(string) (string, error)
}

// Auth resolves the caller from the user-id header, falling back to the token cookie.
func Auth(loader UserLoader, tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			user, err := resolveUser(req, loader, tokens)
			if err != nil {
				if errors.Is(err, errNoCredentials) || errors.Is(err, errInvalidCredentials) {
					writeMessage(res, http.StatusUnauthorized, "Authentication required")
					return
				}

				zap.L().Info("error resolve user", zap.Error(err))

				writeMessage(res, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(res, req.WithContext(WithUser(req.Context(), user)))
		})
	}
}

// OptionalAuth attaches the caller when credentials resolve and lets anonymous requests through.
func OptionalAuth(loader UserLoader, tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			user, err := resolveUser(req, loader, tokens)
			if err != nil {
				if !errors.Is(err, errNoCredentials) {
					zap.L().Info("ignoring unresolved credentials", zap.Error(err))
				}

				next.ServeHTTP(res, req)
				return
			}

			next.ServeHTTP(res, req.WithContext(WithUser(req.Context(), user)))
		})
	}
}

// RequirePermission rejects callers holding none of permissions. It must run after Auth.
func RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			user, ok := UserFromContext(req.Context())
			if !ok {
				writeMessage(res, http.StatusUnauthorized, "Authentication required")
				return
			}

			if !user.HasAnyPermission(permissions...) {
				writeMessage(res, http.StatusForbidden, "Permission denied")
				return
			}

			next.ServeHTTP(res, req)
		})
	}
}

func WithUser(ctx context.Context, user entities.User) context.Context {
	return context.WithValue(ctx, UserKey{}, user)
}

func UserFromContext(ctx context.Context) (entities.User, bool) {
	user, ok := ctx.Value(UserKey{}).(entities.User)
	return user, ok
}

func resolveUser(req *http.Request, loader UserLoader, tokens TokenParser) (entities.User, error) {
	userID := req.Header.Get(UserIDHeader)

	if userID == "" {
		tokenCookie, err := req.Cookie(TokenCookieName)
		if err != nil {
			return entities.User{}, errNoCredentials
		}

		userID, err = tokens.Parse(tokenCookie.Value)
		if err != nil {
			return entities.User{}, errInvalidCredentials
		}
	}

	if _, err := uuid.Parse(userID); err != nil {
		return entities.User{}, errInvalidCredentials
	}

	user, err := loader.LoadUser(req.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return entities.User{}, errInvalidCredentials
		}

		return entities.User{}, err
	}

	return user, nil
}

func writeMessage(res http.ResponseWriter, status int, message string) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)

	if err := json.NewEncoder(res).Encode(map[string]string{"message": message}); err != nil {
		zap.L().Info("error write response", zap.Error(err))
	}
}
