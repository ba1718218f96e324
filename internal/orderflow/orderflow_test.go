package orderflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/mailer"
	"github.com/karrelday/TaraLaba/internal/models"
	"github.com/karrelday/TaraLaba/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	orderID    = "6f1d2b7c-0e11-4c3e-9a51-a3c1f0a41111"
	customerID = "0b8a3c5e-6f6e-4a57-9a4e-0c2d9f1e4b11"
	otherID    = "9d7e6c5b-4a39-4281-8f7e-6d5c4b3a2910"
	staffID    = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
)

func newUser(id, role string) entities.User {
	return entities.User{
		ID:          id,
		FirstName:   "Test",
		LastName:    role,
		UserName:    role + "-" + id[:4],
		Email:       role + "@example.com",
		Role:        role,
		Permissions: entities.PermissionsForRole(role),
	}
}

func newFlow(t *testing.T) (*Flow, *storage.MockStorage) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockStorage := storage.NewMockStorage(ctrl)
	flow := NewFlow(mockStorage)
	flow.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

	return flow, mockStorage
}

func TestUpdateStatusPersistsRegardlessOfPriorStatus(t *testing.T) {
	staff := newUser(staffID, entities.RoleStaff)
	customer := newUser(customerID, entities.RoleCustomer)

	for _, from := range entities.OrderStatuses {
		for _, to := range entities.OrderStatuses {
			t.Run(from+" to "+to, func(t *testing.T) {
				flow, mockStorage := newFlow(t)

				order := entities.Order{ID: orderID, Number: "1714555800000042", CustomerID: customerID, Status: from}
				updated := order
				updated.Status = to

				mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(order, nil)
				mockStorage.EXPECT().UpdateOrderStatus(gomock.Any(), orderID, to).Return(updated, nil)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), customerID).Return(customer, nil)
				mockStorage.EXPECT().CreateNotification(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, n entities.Notification, _ ...entities.OutboxMessage) (entities.Notification, error) {
						n.ID = "n-1"
						return n, nil
					})

				result, err := flow.UpdateStatus(context.Background(), staff, orderID, to)
				require.NoError(t, err)

				assert.Equal(t, to, result.Order.Status)
				assert.Equal(t, MessageUpdatedWithNotification, result.Message)
			})
		}
	}
}

func TestUpdateStatusNotificationCarriesStatusPair(t *testing.T) {
	flow, mockStorage := newFlow(t)

	staff := newUser(staffID, entities.RoleStaff)
	customer := newUser(customerID, entities.RoleCustomer)
	order := entities.Order{ID: orderID, Number: "1714555800000042", CustomerID: customerID, Status: entities.OrderStatusProcessing}
	updated := order
	updated.Status = entities.OrderStatusReady

	var (
		stored   entities.Notification
		messages []entities.OutboxMessage
	)

	mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(order, nil)
	mockStorage.EXPECT().UpdateOrderStatus(gomock.Any(), orderID, entities.OrderStatusReady).Return(updated, nil)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), customerID).Return(customer, nil)
	mockStorage.EXPECT().CreateNotification(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n entities.Notification, m ...entities.OutboxMessage) (entities.Notification, error) {
			stored = n
			messages = m
			n.ID = "n-1"
			return n, nil
		})

	result, err := flow.UpdateStatus(context.Background(), staff, orderID, entities.OrderStatusReady)
	require.NoError(t, err)
	require.NotNil(t, result.Notification)

	assert.Equal(t, "Your order status has been updated from Processing to Ready", stored.Message)
	assert.Equal(t, customerID, stored.UserID)
	assert.Equal(t, orderID, stored.OrderID)
	assert.Equal(t, staffID, stored.CreatedBy)
	assert.Equal(t, entities.NotificationTypeStatusChange, stored.Type)

	require.Len(t, messages, 2)
	assert.Equal(t, entities.TopicEmail, messages[0].Topic)
	assert.Equal(t, entities.TopicOrderStatusChanged, messages[1].Topic)

	var email mailer.Email
	require.NoError(t, json.Unmarshal(messages[0].Payload, &email))
	assert.Equal(t, customer.Email, email.To)
	assert.Contains(t, email.Text, "from Processing to Ready")

	var event models.OrderEvent
	require.NoError(t, json.Unmarshal(messages[1].Payload, &event))
	assert.Equal(t, "Processing", event.OldStatus)
	assert.Equal(t, "Ready", event.NewStatus)
}

func TestUpdateStatusNotificationFailureIsSoft(t *testing.T) {
	flow, mockStorage := newFlow(t)

	staff := newUser(staffID, entities.RoleStaff)
	order := entities.Order{ID: orderID, CustomerID: customerID, Status: entities.OrderStatusPending}
	updated := order
	updated.Status = entities.OrderStatusProcessing

	mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(order, nil)
	mockStorage.EXPECT().UpdateOrderStatus(gomock.Any(), orderID, entities.OrderStatusProcessing).Return(updated, nil)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), customerID).Return(newUser(customerID, entities.RoleCustomer), nil)
	mockStorage.EXPECT().CreateNotification(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(entities.Notification{}, errors.New("connection reset"))

	result, err := flow.UpdateStatus(context.Background(), staff, orderID, entities.OrderStatusProcessing)
	require.NoError(t, err)

	assert.Equal(t, entities.OrderStatusProcessing, result.Order.Status)
	assert.Equal(t, MessageNotificationFailed, result.Message)
	assert.Equal(t, "connection reset", result.NotificationError)
	assert.Nil(t, result.Notification)
}

func TestUpdateStatusWithoutCustomerSkipsNotification(t *testing.T) {
	flow, mockStorage := newFlow(t)

	order := entities.Order{ID: orderID, CustomerID: customerID, Status: entities.OrderStatusReady}
	updated := order
	updated.Status = entities.OrderStatusDelivered

	mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(order, nil)
	mockStorage.EXPECT().UpdateOrderStatus(gomock.Any(), orderID, entities.OrderStatusDelivered).Return(updated, nil)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), customerID).Return(entities.User{}, storage.ErrNoRows)

	result, err := flow.UpdateStatus(context.Background(), newUser(staffID, entities.RoleAdmin), orderID, entities.OrderStatusDelivered)
	require.NoError(t, err)

	assert.Equal(t, MessageNoNotification, result.Message)
	assert.Empty(t, result.NotificationError)
}

func TestUpdateStatusValidation(t *testing.T) {
	staff := newUser(staffID, entities.RoleStaff)

	t.Run("invalid id", func(t *testing.T) {
		flow, _ := newFlow(t)

		_, err := flow.UpdateStatus(context.Background(), staff, "12345", entities.OrderStatusReady)
		assert.ErrorIs(t, err, ErrInvalidOrderID)
	})

	t.Run("invalid status", func(t *testing.T) {
		flow, _ := newFlow(t)

		_, err := flow.UpdateStatus(context.Background(), staff, orderID, "Lost")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("missing order", func(t *testing.T) {
		flow, mockStorage := newFlow(t)
		mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(entities.Order{}, storage.ErrNoRows)

		_, err := flow.UpdateStatus(context.Background(), staff, orderID, entities.OrderStatusReady)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestCustomerCancellation(t *testing.T) {
	customer := newUser(customerID, entities.RoleCustomer)

	tests := []struct {
		name       string
		owner      string
		current    string
		target     string
		wantErr    error
		wantUpdate bool
	}{
		{name: "own pending order", owner: customerID, current: entities.OrderStatusPending, target: entities.OrderStatusCancelled, wantUpdate: true},
		{name: "own processing order", owner: customerID, current: entities.OrderStatusProcessing, target: entities.OrderStatusCancelled, wantErr: ErrForbidden},
		{name: "someone else's pending order", owner: otherID, current: entities.OrderStatusPending, target: entities.OrderStatusCancelled, wantErr: ErrForbidden},
		{name: "other status on own order", owner: customerID, current: entities.OrderStatusPending, target: entities.OrderStatusDelivered, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, mockStorage := newFlow(t)

			order := entities.Order{ID: orderID, CustomerID: tt.owner, Status: tt.current}
			mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(order, nil)

			if tt.wantUpdate {
				updated := order
				updated.Status = tt.target

				mockStorage.EXPECT().UpdateOrderStatus(gomock.Any(), orderID, tt.target).Return(updated, nil)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), tt.owner).Return(customer, nil)
				mockStorage.EXPECT().CreateNotification(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, n entities.Notification, _ ...entities.OutboxMessage) (entities.Notification, error) {
						return n, nil
					})
			}

			result, err := flow.UpdateStatus(context.Background(), customer, orderID, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, entities.OrderStatusCancelled, result.Order.Status)
			require.NotNil(t, result.Notification)
			assert.Equal(t, customerID, result.Notification.CreatedBy)
		})
	}
}

func TestNewStatusChangeNotificationDefaultsCreator(t *testing.T) {
	notification := NewStatusChangeNotification(customerID, orderID, "Pending", "Cancelled", "")

	assert.Equal(t, customerID, notification.CreatedBy)
	assert.Equal(t, "Your order status has been updated from Pending to Cancelled", notification.Message)
}

func TestPlaceOrder(t *testing.T) {
	customer := newUser(customerID, entities.RoleCustomer)

	t.Run("customer order priced from tiers", func(t *testing.T) {
		flow, mockStorage := newFlow(t)

		var messages []entities.OutboxMessage

		mockStorage.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, order entities.Order) (entities.Order, error) {
				order.ID = orderID
				return order, nil
			})
		mockStorage.EXPECT().EnqueueOutbox(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, m ...entities.OutboxMessage) error {
				messages = m
				return nil
			})

		placement, err := flow.PlaceOrder(context.Background(), customer, PlaceOrderInput{
			CustomerID:    otherID,
			LaundryWeight: 4.5,
			ServiceType:   entities.ServiceWashAndDry,
		})
		require.NoError(t, err)

		assert.Equal(t, customerID, placement.Order.CustomerID)
		assert.Equal(t, 15000, placement.Order.AmountToPay)
		assert.Equal(t, entities.OrderStatusPending, placement.Order.Status)
		assert.Equal(t, "Test customer", placement.Order.CustomerName)
		assert.Regexp(t, `^1714555800000\d{3}$`, placement.Order.Number)
		assert.Empty(t, placement.EmailError)

		require.Len(t, messages, 2)
		assert.Equal(t, entities.TopicEmail, messages[0].Topic)
		assert.Equal(t, entities.TopicOrderPlaced, messages[1].Topic)
	})

	t.Run("enqueue failure is a warning", func(t *testing.T) {
		flow, mockStorage := newFlow(t)

		mockStorage.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, order entities.Order) (entities.Order, error) {
				return order, nil
			})
		mockStorage.EXPECT().EnqueueOutbox(gomock.Any(), gomock.Any()).Return(errors.New("outbox unavailable"))

		placement, err := flow.PlaceOrder(context.Background(), customer, PlaceOrderInput{LaundryWeight: 7, ServiceType: entities.ServiceFold})
		require.NoError(t, err)

		assert.Equal(t, 24000, placement.Order.AmountToPay)
		assert.Equal(t, "outbox unavailable", placement.EmailError)
	})

	t.Run("staff orders for a customer", func(t *testing.T) {
		flow, mockStorage := newFlow(t)

		mockStorage.EXPECT().GetUserByID(gomock.Any(), customerID).Return(customer, nil)
		mockStorage.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, order entities.Order) (entities.Order, error) {
				return order, nil
			})
		mockStorage.EXPECT().EnqueueOutbox(gomock.Any(), gomock.Any()).Return(nil)

		placement, err := flow.PlaceOrder(context.Background(), newUser(staffID, entities.RoleStaff), PlaceOrderInput{
			CustomerID:       customerID,
			CustomerName:     "Juan Dela Cruz",
			LaundryWeight:    10,
			ServiceType:      entities.ServiceFull,
			PaymentMethod:    "PNB",
			PaymentAccNumber: "4539-1488-0343-6467",
			PaymentAccName:   "Juan Dela Cruz",
		})
		require.NoError(t, err)

		assert.Equal(t, customerID, placement.Order.CustomerID)
		assert.Equal(t, "Juan Dela Cruz", placement.Order.CustomerName)
		assert.Equal(t, 30000, placement.Order.AmountToPay)
		assert.Equal(t, "4539148803436467", placement.Order.PaymentAccNumber.String)
		assert.False(t, placement.Order.Paid)
	})

	t.Run("retries order number conflicts", func(t *testing.T) {
		flow, mockStorage := newFlow(t)

		gomock.InOrder(
			mockStorage.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(entities.Order{}, storage.ErrConflict),
			mockStorage.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, order entities.Order) (entities.Order, error) {
					return order, nil
				}),
		)
		mockStorage.EXPECT().EnqueueOutbox(gomock.Any(), gomock.Any()).Return(nil)

		_, err := flow.PlaceOrder(context.Background(), customer, PlaceOrderInput{LaundryWeight: 1, ServiceType: entities.ServiceWash})
		assert.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		flow, _ := newFlow(t)

		_, err := flow.PlaceOrder(context.Background(), customer, PlaceOrderInput{LaundryWeight: 12, ServiceType: entities.ServiceWash})
		assert.ErrorIs(t, err, ErrInvalidOrder)

		_, err = flow.PlaceOrder(context.Background(), customer, PlaceOrderInput{LaundryWeight: 2, ServiceType: "Iron"})
		assert.ErrorIs(t, err, ErrInvalidOrder)

		_, err = flow.PlaceOrder(context.Background(), customer, PlaceOrderInput{LaundryWeight: 2, ServiceType: entities.ServiceWash, PaymentMethod: "PNB", PaymentAccNumber: "1234", PaymentAccName: "x"})
		assert.ErrorIs(t, err, ErrInvalidOrder)

		_, err = flow.PlaceOrder(context.Background(), entities.User{ID: otherID, Role: entities.RoleCustomer}, PlaceOrderInput{LaundryWeight: 2, ServiceType: entities.ServiceWash})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestRecordPayment(t *testing.T) {
	customer := newUser(customerID, entities.RoleCustomer)
	payment := entities.Payment{Method: "GCash", AccNumber: "0917 123 4567", AccName: "Juan"}

	t.Run("owner pays", func(t *testing.T) {
		flow, mockStorage := newFlow(t)

		order := entities.Order{ID: orderID, CustomerID: customerID, Status: entities.OrderStatusReady}
		mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(order, nil)
		mockStorage.EXPECT().UpdateOrderPayment(gomock.Any(), orderID, entities.Payment{Method: "GCash", AccNumber: "09171234567", AccName: "Juan"}).
			DoAndReturn(func(_ context.Context, _ string, _ entities.Payment) (entities.Order, error) {
				order.Paid = true
				return order, nil
			})

		updated, err := flow.RecordPayment(context.Background(), customer, orderID, payment)
		require.NoError(t, err)
		assert.True(t, updated.Paid)
	})

	t.Run("already paid", func(t *testing.T) {
		flow, mockStorage := newFlow(t)
		mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(entities.Order{ID: orderID, CustomerID: customerID, Paid: true}, nil)

		_, err := flow.RecordPayment(context.Background(), customer, orderID, payment)
		assert.ErrorIs(t, err, ErrPaymentConflict)
	})

	t.Run("cancelled", func(t *testing.T) {
		flow, mockStorage := newFlow(t)
		mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(entities.Order{ID: orderID, CustomerID: customerID, Status: entities.OrderStatusCancelled}, nil)

		_, err := flow.RecordPayment(context.Background(), customer, orderID, payment)
		assert.ErrorIs(t, err, ErrPaymentConflict)
	})

	t.Run("not the owner", func(t *testing.T) {
		flow, mockStorage := newFlow(t)
		mockStorage.EXPECT().GetOrder(gomock.Any(), orderID).Return(entities.Order{ID: orderID, CustomerID: otherID}, nil)

		_, err := flow.RecordPayment(context.Background(), customer, orderID, payment)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestCanAccess(t *testing.T) {
	order := entities.Order{ID: orderID, CustomerID: customerID}

	assert.True(t, CanAccess(newUser(customerID, entities.RoleCustomer), order))
	assert.False(t, CanAccess(newUser(otherID, entities.RoleCustomer), order))
	assert.True(t, CanAccess(newUser(staffID, entities.RoleStaff), order))
	assert.True(t, CanAccess(newUser(staffID, entities.RoleAdmin), order))
	assert.False(t, CanAccess(entities.User{ID: staffID, Role: entities.RoleStaff}, order))
}
