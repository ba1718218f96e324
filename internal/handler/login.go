package handler

import (
	"errors"
	"net/http"

	"github.com/karrelday/TaraLaba/internal/middleware"
	"github.com/karrelday/TaraLaba/internal/models"
	"github.com/karrelday/TaraLaba/internal/services/password"
	"github.com/karrelday/TaraLaba/internal/storage"
	"go.uber.org/zap"
)

func (h *Handler) Login(res http.ResponseWriter, req *http.Request) {
	var requestModel models.LoginRequest

	if err := decodeJSON(req, &requestModel); err != nil {
		zap.L().Info("error validate login request", zap.Error(err))

		writeMessage(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	if requestModel.UserName == "" || requestModel.Password == "" {
		writeMessage(res, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.storage.GetUserByUserName(req.Context(), requestModel.UserName)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			zap.L().Info("login for unknown user", zap.String("userName", requestModel.UserName))

			writeMessage(res, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		zap.L().Info("error get user", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !password.Compare(user.Password, requestModel.Password) {
		zap.L().Info("password mismatch", zap.String("userID", user.ID))

		writeMessage(res, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.storage.UpdateLastLogin(req.Context(), user.ID); err != nil {
		zap.L().Info("error update last login", zap.String("userID", user.ID), zap.Error(err))
	}

	accessToken, err := h.tokens.Generate(user.ID)
	if err != nil {
		zap.L().Info("error generate token", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(res, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
	})

	writeJSON(res, http.StatusOK, models.LoginResponse{
		Message: "Login successful",
		User:    toUserResponse(user),
		Token:   accessToken,
	})
}
