package orderflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/mailer"
	"github.com/karrelday/TaraLaba/internal/models"
	"github.com/karrelday/TaraLaba/internal/services/converter"
	"github.com/karrelday/TaraLaba/internal/services/pricing"
	"github.com/karrelday/TaraLaba/internal/services/validation"
	"github.com/karrelday/TaraLaba/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrInvalidOrderID   = errors.New("invalid order ID format")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrForbidden        = errors.New("permission denied")
	ErrPaymentConflict  = errors.New("order cannot be paid")
)

const (
	MessageUpdatedWithNotification = "Order updated with notification"
	MessageNotificationFailed      = "Order updated (notification failed)"
	MessageNoNotification          = "Order updated (no notification sent)"
)

const numberAttempts = 3

type Flow struct {
	storage storage.Storage
	now     func() time.Time
}

func NewFlow(storage storage.Storage) *Flow {
	return &Flow{
		storage: storage,
		now:     time.Now,
	}
}

type StatusUpdate struct {
	Order             entities.Order
	Notification      *entities.Notification
	NotificationError string
	Message           string
}

// UpdateStatus applies the status unconditionally: any status may follow any other.
// Notification failures do not undo the status write, they come back in
// StatusUpdate.NotificationError.
func (f *Flow) UpdateStatus(ctx context.Context, actor entities.User, orderID string, status string) (StatusUpdate, error) {
	if err := ValidateID(orderID); err != nil {
		return StatusUpdate{}, err
	}

	if !entities.IsValidOrderStatus(status) {
		return StatusUpdate{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := f.getOrder(ctx, orderID)
	if err != nil {
		return StatusUpdate{}, err
	}

	if err := authorizeStatusChange(actor, order, status); err != nil {
		return StatusUpdate{}, err
	}

	updated, err := f.storage.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return StatusUpdate{}, ErrOrderNotFound
		}

		return StatusUpdate{}, fmt.Errorf("error update order status: %w", err)
	}

	zap.L().Info(
		"order status changed",
		zap.String("orderID", orderID),
		zap.String("oldStatus", order.Status),
		zap.String("newStatus", status),
		zap.String("changedBy", actor.ID),
	)

	return f.notifyStatusChange(ctx, actor, order.Status, updated), nil
}

// authorizeStatusChange lets order managers set any status. Customers may only
// cancel their own orders that are still pending.
func authorizeStatusChange(actor entities.User, order entities.Order, status string) error {
	if actor.HasPermission(entities.PermissionManageOrders) {
		return nil
	}

	if !actor.IsCustomer() || order.CustomerID != actor.ID {
		return ErrForbidden
	}

	if status != entities.OrderStatusCancelled {
		return fmt.Errorf("%w: customers can only cancel orders", ErrForbidden)
	}

	if order.Status != entities.OrderStatusPending {
		return fmt.Errorf("%w: only pending orders can be cancelled", ErrForbidden)
	}

	return nil
}

func (f *Flow) notifyStatusChange(ctx context.Context, actor entities.User, oldStatus string, order entities.Order) StatusUpdate {
	result := StatusUpdate{Order: order}

	customer, err := f.storage.GetUserByID(ctx, order.CustomerID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			zap.L().Warn("order customer not found, notification skipped", zap.String("orderID", order.ID))

			result.Message = MessageNoNotification
			return result
		}

		zap.L().Error("error get order customer", zap.String("orderID", order.ID), zap.Error(err))

		result.Message = MessageNotificationFailed
		result.NotificationError = err.Error()
		return result
	}

	notification := NewStatusChangeNotification(customer.ID, order.ID, oldStatus, order.Status, actor.ID)

	messages := f.statusChangeMessages(customer, actor, oldStatus, order, notification.Message)

	created, err := f.storage.CreateNotification(ctx, notification, messages...)
	if err != nil {
		zap.L().Error("error create notification", zap.String("orderID", order.ID), zap.Error(err))

		result.Message = MessageNotificationFailed
		result.NotificationError = err.Error()
		return result
	}

	result.Message = MessageUpdatedWithNotification
	result.Notification = &created

	return result
}

// NewStatusChangeNotification builds the notification for a status change.
// An empty creator means the notification was raised by the system on the user's behalf.
func NewStatusChangeNotification(userID, orderID, oldStatus, newStatus, createdBy string) entities.Notification {
	if createdBy == "" {
		createdBy = userID
	}

	return entities.Notification{
		UserID:    userID,
		OrderID:   orderID,
		Message:   StatusChangeMessage(oldStatus, newStatus),
		Type:      entities.NotificationTypeStatusChange,
		CreatedBy: createdBy,
	}
}

func StatusChangeMessage(oldStatus, newStatus string) string {
	return fmt.Sprintf("Your order status has been updated from %s to %s", oldStatus, newStatus)
}

func (f *Flow) statusChangeMessages(customer, actor entities.User, oldStatus string, order entities.Order, text string) []entities.OutboxMessage {
	var messages []entities.OutboxMessage

	if customer.Email != "" {
		email := mailer.Email{
			To:      customer.Email,
			Subject: fmt.Sprintf("Your laundry order %s is now %s", order.Number, order.Status),
			Text:    fmt.Sprintf("Hi %s,\n\n%s.\nOrder number: %s\n\nTaraLaba", customer.FullName(), text, order.Number),
		}

		if message, err := newOutboxMessage(entities.TopicEmail, email); err == nil {
			messages = append(messages, message)
		} else {
			zap.L().Error("error build status email", zap.String("orderID", order.ID), zap.Error(err))
		}
	}

	event := models.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		CustomerID:  order.CustomerID,
		OldStatus:   oldStatus,
		NewStatus:   order.Status,
		ChangedBy:   actor.ID,
		OccurredAt:  f.now().UTC(),
	}

	if message, err := newOutboxMessage(entities.TopicOrderStatusChanged, event); err == nil {
		messages = append(messages, message)
	} else {
		zap.L().Error("error build status event", zap.String("orderID", order.ID), zap.Error(err))
	}

	return messages
}

type PlaceOrderInput struct {
	CustomerID       string
	CustomerName     string
	LaundryWeight    float64
	ServiceType      string
	PaymentMethod    string
	PaymentAccNumber string
	PaymentAccName   string
}

type Placement struct {
	Order      entities.Order
	EmailError string
}

// PlaceOrder stores a new pending order priced from the weight tiers. Customers
// always order for themselves; order managers may order on behalf of a customer.
func (f *Flow) PlaceOrder(ctx context.Context, actor entities.User, in PlaceOrderInput) (Placement, error) {
	if !actor.HasAnyPermission(entities.PermissionCreateOrders, entities.PermissionManageOrders) {
		return Placement{}, ErrForbidden
	}

	owner, err := f.resolveOwner(ctx, actor, in.CustomerID)
	if err != nil {
		return Placement{}, err
	}

	amount, err := pricing.AmountForWeight(in.LaundryWeight)
	if err != nil {
		return Placement{}, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	if !entities.IsValidServiceType(in.ServiceType) {
		return Placement{}, fmt.Errorf("%w: unknown service type %q", ErrInvalidOrder, in.ServiceType)
	}

	order := entities.Order{
		CustomerID:    owner.ID,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		LaundryWeight: in.LaundryWeight,
		AmountToPay:   amount,
		ServiceType:   in.ServiceType,
		Status:        entities.OrderStatusPending,
	}

	if order.CustomerName == "" {
		order.CustomerName = owner.FullName()
	}

	if in.PaymentMethod != "" {
		if err := validation.ValidatePayment(in.PaymentMethod, in.PaymentAccNumber, in.PaymentAccName); err != nil {
			return Placement{}, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
		}

		order.PaymentMethod = nullString(in.PaymentMethod)
		order.PaymentAccNumber = nullString(validation.NormalizeAccountNumber(in.PaymentAccNumber))
		order.PaymentAccName = nullString(strings.TrimSpace(in.PaymentAccName))
	}

	var created entities.Order

	for attempt := 0; attempt < numberAttempts; attempt++ {
		order.Number = f.generateOrderNumber()

		created, err = f.storage.CreateOrder(ctx, order)
		if !errors.Is(err, storage.ErrConflict) {
			break
		}
	}

	if err != nil {
		return Placement{}, fmt.Errorf("error create order: %w", err)
	}

	zap.L().Info(
		"order placed",
		zap.String("orderID", created.ID),
		zap.String("customerID", created.CustomerID),
		zap.Float64("weight", created.LaundryWeight),
	)

	result := Placement{Order: created}

	if err := f.storage.EnqueueOutbox(ctx, f.placementMessages(owner, actor, created)...); err != nil {
		zap.L().Error("error enqueue order placed email", zap.String("orderID", created.ID), zap.Error(err))

		result.EmailError = err.Error()
	}

	return result, nil
}

func (f *Flow) resolveOwner(ctx context.Context, actor entities.User, customerID string) (entities.User, error) {
	if actor.IsCustomer() || customerID == "" || customerID == actor.ID {
		return actor, nil
	}

	if _, err := uuid.Parse(customerID); err != nil {
		return entities.User{}, fmt.Errorf("%w: invalid customer ID format", ErrInvalidOrder)
	}

	owner, err := f.storage.GetUserByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return entities.User{}, ErrCustomerNotFound
		}

		return entities.User{}, fmt.Errorf("error get customer: %w", err)
	}

	return owner, nil
}

func (f *Flow) placementMessages(owner, actor entities.User, order entities.Order) []entities.OutboxMessage {
	var messages []entities.OutboxMessage

	if owner.Email != "" {
		email := mailer.Email{
			To:      owner.Email,
			Subject: fmt.Sprintf("Your laundry order %s has been placed", order.Number),
			Text: fmt.Sprintf(
				"Hi %s,\n\nWe received your %s order (%.2f kg).\nAmount to pay: PHP %.2f\nOrder number: %s\n\nThank you for choosing TaraLaba!",
				owner.FullName(), order.ServiceType, order.LaundryWeight, converter.FormatAmount(order.AmountToPay), order.Number,
			),
		}

		if message, err := newOutboxMessage(entities.TopicEmail, email); err == nil {
			messages = append(messages, message)
		}
	}

	event := models.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		CustomerID:  order.CustomerID,
		NewStatus:   order.Status,
		ChangedBy:   actor.ID,
		OccurredAt:  f.now().UTC(),
	}

	if message, err := newOutboxMessage(entities.TopicOrderPlaced, event); err == nil {
		messages = append(messages, message)
	}

	return messages
}

// RecordPayment stores payment metadata and flags the order as paid. No gateway is called.
func (f *Flow) RecordPayment(ctx context.Context, actor entities.User, orderID string, payment entities.Payment) (entities.Order, error) {
	if err := ValidateID(orderID); err != nil {
		return entities.Order{}, err
	}

	order, err := f.getOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if !CanAccess(actor, order) {
		return entities.Order{}, ErrForbidden
	}

	if order.Paid {
		return entities.Order{}, fmt.Errorf("%w: already paid", ErrPaymentConflict)
	}

	if order.Status == entities.OrderStatusCancelled {
		return entities.Order{}, fmt.Errorf("%w: order is cancelled", ErrPaymentConflict)
	}

	if err := validation.ValidatePayment(payment.Method, payment.AccNumber, payment.AccName); err != nil {
		return entities.Order{}, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	payment.AccNumber = validation.NormalizeAccountNumber(payment.AccNumber)
	payment.AccName = strings.TrimSpace(payment.AccName)

	updated, err := f.storage.UpdateOrderPayment(ctx, orderID, payment)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return entities.Order{}, ErrOrderNotFound
		}

		return entities.Order{}, fmt.Errorf("error update order payment: %w", err)
	}

	zap.L().Info("order paid", zap.String("orderID", orderID), zap.String("method", payment.Method))

	return updated, nil
}

// GetOrder loads an order the actor is allowed to see.
func (f *Flow) GetOrder(ctx context.Context, actor entities.User, orderID string) (entities.Order, error) {
	if err := ValidateID(orderID); err != nil {
		return entities.Order{}, err
	}

	order, err := f.getOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if !CanAccess(actor, order) {
		return entities.Order{}, ErrForbidden
	}

	return order, nil
}

func (f *Flow) getOrder(ctx context.Context, orderID string) (entities.Order, error) {
	order, err := f.storage.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return entities.Order{}, ErrOrderNotFound
		}

		return entities.Order{}, fmt.Errorf("error get order: %w", err)
	}

	return order, nil
}

// CanAccess reports whether actor may read or act on order. Customers are limited to their own orders.
func CanAccess(actor entities.User, order entities.Order) bool {
	if actor.IsCustomer() {
		return order.CustomerID == actor.ID
	}

	return actor.HasAnyPermission(entities.PermissionManageOrders, entities.PermissionViewAll)
}

func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidOrderID
	}

	return nil
}

func (f *Flow) generateOrderNumber() string {
	return fmt.Sprintf("%d%03d", f.now().UnixMilli(), rand.Intn(1000))
}

func newOutboxMessage(topic string, payload interface{}) (entities.OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return entities.OutboxMessage{}, err
	}

	return entities.OutboxMessage{
		Topic:   topic,
		Payload: data,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
