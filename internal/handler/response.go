package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/middleware"
	"github.com/karrelday/TaraLaba/internal/models"
	"github.com/karrelday/TaraLaba/internal/orderflow"
	"github.com/karrelday/TaraLaba/internal/services/converter"
	"go.uber.org/zap"
)

func writeJSON(res http.ResponseWriter, status int, body interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)

	jsonEncoder := json.NewEncoder(res)
	if err := jsonEncoder.Encode(body); err != nil {
		zap.L().Info("cannot encode response JSON body", zap.Error(err))
	}
}

func writeMessage(res http.ResponseWriter, status int, message string) {
	writeJSON(res, status, models.MessageResponse{Message: message})
}

// writeFlowError maps orderflow errors onto status codes.
func writeFlowError(res http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orderflow.ErrInvalidOrderID):
		writeMessage(res, http.StatusBadRequest, "Invalid order ID format")
	case errors.Is(err, orderflow.ErrInvalidStatus), errors.Is(err, orderflow.ErrInvalidOrder):
		writeMessage(res, http.StatusBadRequest, err.Error())
	case errors.Is(err, orderflow.ErrOrderNotFound):
		writeMessage(res, http.StatusNotFound, "Order not found")
	case errors.Is(err, orderflow.ErrCustomerNotFound):
		writeMessage(res, http.StatusNotFound, "Customer not found")
	case errors.Is(err, orderflow.ErrForbidden):
		writeMessage(res, http.StatusForbidden, err.Error())
	case errors.Is(err, orderflow.ErrPaymentConflict):
		writeMessage(res, http.StatusConflict, err.Error())
	default:
		zap.L().Info("order flow failed", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) actor(res http.ResponseWriter, req *http.Request) (entities.User, bool) {
	user, ok := middleware.UserFromContext(req.Context())
	if !ok {
		writeMessage(res, http.StatusUnauthorized, "Authentication required")
		return entities.User{}, false
	}

	return user, true
}

// isID reports whether id can name a row. Every primary key is a uuid.
func isID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func decodeJSON(req *http.Request, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return fmt.Errorf("cannot decode request to json: %w", err)
	}

	return nil
}

func toUserResponse(user entities.User) models.UserResponse {
	response := models.UserResponse{
		ID:          user.ID,
		FirstName:   user.FirstName,
		MiddleName:  user.MiddleName,
		LastName:    user.LastName,
		UserName:    user.UserName,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: []string(user.Permissions),
	}

	if response.Permissions == nil {
		response.Permissions = []string{}
	}

	if !user.CreatedAt.IsZero() {
		createdAt := user.CreatedAt
		response.CreatedAt = &createdAt
	}

	if user.LastLogin.Valid {
		lastLogin := user.LastLogin.Time
		response.LastLogin = &lastLogin
	}

	return response
}

func toOrderResponse(order entities.Order) models.OrderResponse {
	response := models.OrderResponse{
		ID:               order.ID,
		OrderNumber:      order.Number,
		CustomerID:       order.CustomerID,
		CustomerName:     order.CustomerName,
		LaundryWeight:    order.LaundryWeight,
		AmountToPay:      converter.FormatAmount(order.AmountToPay),
		ServiceType:      order.ServiceType,
		Status:           order.Status,
		Paid:             order.Paid,
		PaymentMethod:    order.PaymentMethod.String,
		PaymentAccNumber: order.PaymentAccNumber.String,
		PaymentAccName:   order.PaymentAccName.String,
		Date:             order.CreatedAt,
	}

	if order.PaidAt.Valid {
		paidAt := order.PaidAt.Time
		response.PaidAt = &paidAt
	}

	if order.CompletedAt.Valid {
		completedAt := order.CompletedAt.Time
		response.DateCompleted = &completedAt
	}

	return response
}

func toOrderResponses(orders []entities.Order) []models.OrderResponse {
	responses := make([]models.OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}

	return responses
}

func toNotificationResponse(notification entities.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:        notification.ID,
		UserID:    notification.UserID,
		OrderID:   notification.OrderID,
		Message:   notification.Message,
		Type:      notification.Type,
		IsRead:    notification.IsRead,
		CreatedBy: notification.CreatedBy,
		CreatedAt: notification.CreatedAt,
	}
}
