package entities

import (
	"database/sql"
	"time"
)

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusReady      = "Ready"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}

	return false
}

const (
	ServiceWash       = "Wash"
	ServiceDry        = "Dry"
	ServiceWashAndDry = "Wash & Dry"
	ServiceFold       = "Fold"
	ServiceFull       = "Full Service"
)

var ServiceTypes = []string{ServiceWash, ServiceDry, ServiceWashAndDry, ServiceFold, ServiceFull}

func IsValidServiceType(serviceType string) bool {
	for _, s := range ServiceTypes {
		if s == serviceType {
			return true
		}
	}

	return false
}

// Order amounts are stored in centavos.
type Order struct {
	ID               string         `db:"id"`
	Number           string         `db:"number"`
	CustomerID       string         `db:"customer_id"`
	CustomerName     string         `db:"customer_name"`
	LaundryWeight    float64        `db:"laundry_weight"`
	AmountToPay      int            `db:"amount_to_pay"`
	ServiceType      string         `db:"service_type"`
	Status           string         `db:"status"`
	Paid             bool           `db:"paid"`
	PaymentMethod    sql.NullString `db:"payment_method"`
	PaymentAccNumber sql.NullString `db:"payment_acc_number"`
	PaymentAccName   sql.NullString `db:"payment_acc_name"`
	PaidAt           sql.NullTime   `db:"paid_at"`
	CreatedAt        time.Time      `db:"created_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
}

type Payment struct {
	Method    string
	AccNumber string
	AccName   string
}

type OrderFilter struct {
	CustomerID string
	Status     string
}
