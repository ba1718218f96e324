package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/models"
	"github.com/karrelday/TaraLaba/internal/orderflow"
	"github.com/karrelday/TaraLaba/internal/storage"
	"go.uber.org/zap"
)

// GetOrders lists every order, or only the caller's own for customers.
func (h *Handler) GetOrders(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	var filter entities.OrderFilter
	if actor.IsCustomer() {
		filter.CustomerID = actor.ID
	}

	h.writeOrders(res, req, filter)
}

func (h *Handler) GetOrdersByStatus(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	status := chi.URLParam(req, "status")
	if !entities.IsValidOrderStatus(status) {
		writeMessage(res, http.StatusBadRequest, "Invalid order status")
		return
	}

	filter := entities.OrderFilter{Status: status}

	switch {
	case actor.IsCustomer():
		filter.CustomerID = actor.ID
	case !canListOrders(actor):
		writeMessage(res, http.StatusForbidden, "Permission denied")
		return
	}

	h.writeOrders(res, req, filter)
}

func (h *Handler) GetOrdersByCustomer(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	customerID := chi.URLParam(req, "customerId")

	allowed := canListOrders(actor)
	if actor.IsCustomer() {
		allowed = actor.ID == customerID
	}

	if !allowed {
		writeMessage(res, http.StatusForbidden, "Permission denied")
		return
	}

	if !isID(customerID) {
		writeMessage(res, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	h.writeOrders(res, req, entities.OrderFilter{CustomerID: customerID})
}

func (h *Handler) GetOrder(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	order, err := h.flow.GetOrder(req.Context(), actor, chi.URLParam(req, "orderId"))
	if err != nil {
		writeFlowError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) AddOrder(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	var requestModel models.AddOrderRequest

	if err := decodeJSON(req, &requestModel); err != nil {
		zap.L().Info("error validate add order request", zap.Error(err))

		writeMessage(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	placement, err := h.flow.PlaceOrder(req.Context(), actor, orderflow.PlaceOrderInput{
		CustomerID:       requestModel.CustomerID,
		CustomerName:     requestModel.CustomerName,
		LaundryWeight:    requestModel.LaundryWeight,
		ServiceType:      requestModel.ServiceType,
		PaymentMethod:    requestModel.PaymentMethod,
		PaymentAccNumber: requestModel.PaymentAccNumber,
		PaymentAccName:   requestModel.PaymentAccName,
	})
	if err != nil {
		writeFlowError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, models.AddOrderResponse{
		OrderResponse: toOrderResponse(placement.Order),
		EmailError:    placement.EmailError,
	})
}

// UpdateOrder changes the order status. The response is 200 even when the
// customer notification could not be stored.
func (h *Handler) UpdateOrder(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	var requestModel models.UpdateOrderRequest

	if err := decodeJSON(req, &requestModel); err != nil {
		zap.L().Info("error validate update order request", zap.Error(err))

		writeMessage(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	update, err := h.flow.UpdateStatus(req.Context(), actor, chi.URLParam(req, "orderId"), requestModel.Status)
	if err != nil {
		writeFlowError(res, err)
		return
	}

	response := models.UpdateOrderResponse{
		Message:           update.Message,
		Order:             toOrderResponse(update.Order),
		NotificationError: update.NotificationError,
	}

	if update.Notification != nil {
		notification := toNotificationResponse(*update.Notification)
		response.Notification = &notification
	}

	writeJSON(res, http.StatusOK, response)
}

func (h *Handler) PayOrder(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	var requestModel models.PayOrderRequest

	if err := decodeJSON(req, &requestModel); err != nil {
		zap.L().Info("error validate pay order request", zap.Error(err))

		writeMessage(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.flow.RecordPayment(req.Context(), actor, chi.URLParam(req, "orderId"), entities.Payment{
		Method:    requestModel.PaymentMethod,
		AccNumber: requestModel.PaymentAccNumber,
		AccName:   requestModel.PaymentAccName,
	})
	if err != nil {
		writeFlowError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) DeleteOrder(res http.ResponseWriter, req *http.Request) {
	orderID := chi.URLParam(req, "orderId")

	if err := orderflow.ValidateID(orderID); err != nil {
		writeFlowError(res, err)
		return
	}

	if err := h.storage.DeleteOrder(req.Context(), orderID); err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			writeMessage(res, http.StatusNotFound, "Order not found")
			return
		}

		zap.L().Info("error delete order", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(res, http.StatusOK, models.DeleteOrderResponse{
		Message:        "Order deleted successfully",
		DeletedOrderID: orderID,
	})
}

func (h *Handler) writeOrders(res http.ResponseWriter, req *http.Request, filter entities.OrderFilter) {
	orders, err := h.storage.GetOrders(req.Context(), filter)
	if err != nil {
		zap.L().Info("error get orders from database", zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(res, http.StatusOK, toOrderResponses(orders))
}

func canListOrders(actor entities.User) bool {
	return actor.HasAnyPermission(entities.PermissionManageOrders, entities.PermissionViewAll)
}
