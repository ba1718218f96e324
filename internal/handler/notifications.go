package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/models"
	"github.com/karrelday/TaraLaba/internal/storage"
	"go.uber.org/zap"
)

// GetNotifications returns the notifications addressed to a customer, or the
// ones a staff member created.
func (h *Handler) GetNotifications(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	var filter entities.NotificationFilter
	if actor.IsCustomer() {
		filter.UserID = actor.ID
	} else {
		filter.CreatedBy = actor.ID
	}

	notifications, err := h.storage.GetNotifications(req.Context(), filter)
	if err != nil {
		zap.L().Info("error get notifications from database", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	responseNotifications := make([]models.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responseNotifications = append(responseNotifications, toNotificationResponse(notification))
	}

	writeJSON(res, http.StatusOK, responseNotifications)
}

func (h *Handler) MarkNotificationRead(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	notificationID := chi.URLParam(req, "id")

	if !isID(notificationID) {
		writeMessage(res, http.StatusNotFound, "Notification not found")
		return
	}

	notification, err := h.storage.GetNotification(req.Context(), notificationID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			writeMessage(res, http.StatusNotFound, "Notification not found")
			return
		}

		zap.L().Info("error get notification", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	if actor.IsCustomer() && notification.UserID != actor.ID {
		writeMessage(res, http.StatusForbidden, "Permission denied")
		return
	}

	notification, err = h.storage.MarkNotificationRead(req.Context(), notificationID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			writeMessage(res, http.StatusNotFound, "Notification not found")
			return
		}

		zap.L().Info("error mark notification read", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(res, http.StatusOK, models.MarkReadResponse{
		Message:      "Notification marked as read",
		Notification: toNotificationResponse(notification),
	})
}
