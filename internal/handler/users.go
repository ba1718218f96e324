package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/middleware"
	"github.com/karrelday/TaraLaba/internal/models"
	"github.com/karrelday/TaraLaba/internal/services/password"
	"github.com/karrelday/TaraLaba/internal/storage"
	"go.uber.org/zap"
)

// AddUser registers a user. Anyone may sign up as a customer, other roles need manage_users.
func (h *Handler) AddUser(res http.ResponseWriter, req *http.Request) {
	var requestModel models.UserRequest

	if err := decodeJSON(req, &requestModel); err != nil {
		zap.L().Info("error validate add user request", zap.Error(err))

		writeMessage(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	if requestModel.FirstName == "" || requestModel.LastName == "" || requestModel.UserName == "" ||
		requestModel.Email == "" || requestModel.Password == "" {
		writeMessage(res, http.StatusBadRequest, "firstName, lastName, userName, email and password are required")
		return
	}

	if requestModel.Role == "" {
		requestModel.Role = entities.RoleCustomer
	}

	if !entities.IsValidRole(requestModel.Role) {
		writeMessage(res, http.StatusBadRequest, "Invalid role")
		return
	}

	if requestModel.Role != entities.RoleCustomer {
		caller, ok := middleware.UserFromContext(req.Context())
		if !ok || !caller.HasPermission(entities.PermissionManageUsers) {
			writeMessage(res, http.StatusForbidden, "Permission denied")
			return
		}
	}

	passwordHash, err := password.Hash(requestModel.Password)
	if err != nil {
		zap.L().Info("error hash password", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.storage.CreateUser(req.Context(), entities.User{
		FirstName:   requestModel.FirstName,
		MiddleName:  requestModel.MiddleName,
		LastName:    requestModel.LastName,
		UserName:    requestModel.UserName,
		Email:       strings.ToLower(requestModel.Email),
		Password:    passwordHash,
		Role:        requestModel.Role,
		Permissions: entities.PermissionsForRole(requestModel.Role),
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			zap.L().Info("error user already exists", zap.String("userName", requestModel.UserName))

			writeMessage(res, http.StatusConflict, "Username or email already exists")
			return
		}

		zap.L().Info("error create user", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(res, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) GetUsers(res http.ResponseWriter, req *http.Request) {
	users, err := h.storage.GetUsers(req.Context())
	if err != nil {
		zap.L().Info("error get users from database", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	responseUsers := make([]models.UserResponse, 0, len(users))
	for _, user := range users {
		responseUsers = append(responseUsers, toUserResponse(user))
	}

	writeJSON(res, http.StatusOK, responseUsers)
}

func (h *Handler) GetUser(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	userID := chi.URLParam(req, "userId")

	if !canManageUser(actor, userID) {
		writeMessage(res, http.StatusForbidden, "Permission denied")
		return
	}

	if !isID(userID) {
		writeMessage(res, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.storage.GetUserByID(req.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			writeMessage(res, http.StatusNotFound, "User not found")
			return
		}

		zap.L().Info("error get user", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(res, http.StatusOK, toUserResponse(user))
}

// UpdateUser merges the non-empty request fields into the stored user.
// A role change re-derives the permission set.
func (h *Handler) UpdateUser(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	userID := chi.URLParam(req, "id")

	if !canManageUser(actor, userID) {
		writeMessage(res, http.StatusForbidden, "Permission denied")
		return
	}

	if !isID(userID) {
		writeMessage(res, http.StatusNotFound, "User not found")
		return
	}

	var requestModel models.UserRequest

	if err := decodeJSON(req, &requestModel); err != nil {
		zap.L().Info("error validate update user request", zap.Error(err))

		writeMessage(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.storage.GetUserByID(req.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			writeMessage(res, http.StatusNotFound, "User not found")
			return
		}

		zap.L().Info("error get user", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	if requestModel.Role != "" && requestModel.Role != user.Role {
		if !actor.HasPermission(entities.PermissionManageUsers) {
			writeMessage(res, http.StatusForbidden, "Only administrators can change roles")
			return
		}

		if !entities.IsValidRole(requestModel.Role) {
			writeMessage(res, http.StatusBadRequest, "Invalid role")
			return
		}

		user.Role = requestModel.Role
		user.Permissions = entities.PermissionsForRole(requestModel.Role)
	}

	mergeString(&user.FirstName, requestModel.FirstName)
	mergeString(&user.MiddleName, requestModel.MiddleName)
	mergeString(&user.LastName, requestModel.LastName)
	mergeString(&user.UserName, requestModel.UserName)
	mergeString(&user.Email, strings.ToLower(requestModel.Email))

	if requestModel.Password != "" {
		user.Password, err = password.Hash(requestModel.Password)
		if err != nil {
			zap.L().Info("error hash password", zap.Error(err))

			writeMessage(res, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	updated, err := h.storage.UpdateUser(req.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNoRows):
			writeMessage(res, http.StatusNotFound, "User not found")
		case errors.Is(err, storage.ErrConflict):
			writeMessage(res, http.StatusConflict, "Username or email already exists")
		default:
			zap.L().Info("error update user", zap.Error(err))

			writeMessage(res, http.StatusInternalServerError, "Internal server error")
		}

		return
	}

	h.users.InvalidateUser(req.Context(), userID)

	writeJSON(res, http.StatusOK, toUserResponse(updated))
}

func (h *Handler) DeleteUser(res http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "id")

	if !isID(userID) {
		writeMessage(res, http.StatusNotFound, "User not found")
		return
	}

	if err := h.storage.DeleteUser(req.Context(), userID); err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			writeMessage(res, http.StatusNotFound, "User not found")
			return
		}

		zap.L().Info("error delete user", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.users.InvalidateUser(req.Context(), userID)

	writeJSON(res, http.StatusOK, models.DeleteUserResponse{
		Message:       "User deleted successfully",
		DeletedUserID: userID,
	})
}

func canManageUser(actor entities.User, userID string) bool {
	return actor.ID == userID || actor.HasPermission(entities.PermissionManageUsers)
}

func mergeString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
