package entities

import "time"

type ReceiptItem struct {
	Service      string
	Quantity     float64
	PricePerUnit float64
	Subtotal     float64
}

// Receipt is built from an order snapshot and never stored.
type Receipt struct {
	ReceiptID     string
	OrderID       string
	OrderNumber   string
	CustomerName  string
	Items         []ReceiptItem
	TotalAmount   float64
	Tax           float64
	Discount      float64
	FinalAmount   float64
	PaymentMethod string
	PaymentStatus string
	IssuedAt      time.Time
}
