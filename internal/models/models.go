package models

import "time"

type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

type UserRequest struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	UserName   string `json:"userName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	MiddleName  string     `json:"middleName,omitempty"`
	LastName    string     `json:"lastName"`
	UserName    string     `json:"userName"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

type DeleteUserResponse struct {
	Message       string `json:"message"`
	DeletedUserID string `json:"deletedUserId"`
}

type AddOrderRequest struct {
	CustomerID       string  `json:"customerId"`
	CustomerName     string  `json:"customerName"`
	LaundryWeight    float64 `json:"laundryWeight"`
	ServiceType      string  `json:"serviceType"`
	PaymentMethod    string  `json:"paymentMethod"`
	PaymentAccNumber string  `json:"paymentAccNumber"`
	PaymentAccName   string  `json:"paymentAccName"`
}

type AddOrderResponse struct {
	OrderResponse
	EmailError string `json:"emailError,omitempty"`
}

type UpdateOrderRequest struct {
	Status string `json:"status"`
}

type PayOrderRequest struct {
	PaymentMethod    string `json:"paymentMethod"`
	PaymentAccNumber string `json:"paymentAccNumber"`
	PaymentAccName   string `json:"paymentAccName"`
}

type OrderResponse struct {
	ID               string     `json:"id"`
	OrderNumber      string     `json:"orderNumber"`
	CustomerID       string     `json:"customerId"`
	CustomerName     string     `json:"customerName"`
	LaundryWeight    float64    `json:"laundryWeight"`
	AmountToPay      float64    `json:"amountToPay"`
	ServiceType      string     `json:"serviceType"`
	Status           string     `json:"status"`
	Paid             bool       `json:"paid"`
	PaymentMethod    string     `json:"paymentMethod,omitempty"`
	PaymentAccNumber string     `json:"paymentAccNumber,omitempty"`
	PaymentAccName   string     `json:"paymentAccName,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
	Date             time.Time  `json:"date"`
	DateCompleted    *time.Time `json:"dateCompleted,omitempty"`
}

type UpdateOrderResponse struct {
	Message           string                `json:"message"`
	Order             OrderResponse         `json:"order"`
	Notification      *NotificationResponse `json:"notification,omitempty"`
	NotificationError string                `json:"notificationError,omitempty"`
}

type DeleteOrderResponse struct {
	Message        string `json:"message"`
	DeletedOrderID string `json:"deletedOrderId"`
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	OrderID   string    `json:"orderId"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type MarkReadResponse struct {
	Message      string               `json:"message"`
	Notification NotificationResponse `json:"notification"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DBStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OrderEvent is published for order.placed and order.status_changed.
type OrderEvent struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  string    `json:"customerId"`
	OldStatus   string    `json:"oldStatus,omitempty"`
	NewStatus   string    `json:"newStatus"`
	ChangedBy   string    `json:"changedBy"`
	OccurredAt  time.Time `json:"occurredAt"`
}
