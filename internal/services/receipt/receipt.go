package receipt

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/services/converter"
)

const (
	taxRate = 0.1
	title   = "LaundroTrack Receipt"
)

const (
	paymentStatusPending   = "pending"
	paymentStatusCompleted = "completed"
)

func Build(order entities.Order, now time.Time) entities.Receipt {
	total := converter.FormatAmount(order.AmountToPay)

	pricePerUnit := 0.0
	if order.LaundryWeight > 0 {
		pricePerUnit = round2(total / order.LaundryWeight)
	}

	paymentStatus := paymentStatusPending
	if order.Paid {
		paymentStatus = paymentStatusCompleted
	}

	tax := round2(total * taxRate)

	return entities.Receipt{
		ReceiptID:    fmt.Sprintf("RCP-%d", now.UnixMilli()),
		OrderID:      order.ID,
		OrderNumber:  order.Number,
		CustomerName: order.CustomerName,
		Items: []entities.ReceiptItem{
			{
				Service:      order.ServiceType,
				Quantity:     order.LaundryWeight,
				PricePerUnit: pricePerUnit,
				Subtotal:     total,
			},
		},
		TotalAmount:   total,
		Tax:           tax,
		Discount:      0,
		FinalAmount:   round2(total + tax),
		PaymentMethod: order.PaymentMethod.String,
		PaymentStatus: paymentStatus,
		IssuedAt:      now,
	}
}

func Render(w io.Writer, receipt entities.Receipt) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetCreationDate(receipt.IssuedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	line := func(text string) {
		pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
	}

	line("Receipt ID: " + receipt.ReceiptID)
	line("Order ID: " + receipt.OrderID)
	if receipt.OrderNumber != "" {
		line("Order No.: " + receipt.OrderNumber)
	}
	if receipt.CustomerName != "" {
		line("Customer: " + receipt.CustomerName)
	}
	line("Date: " + receipt.IssuedAt.Format("Jan 2, 2006 3:04 PM"))
	pdf.Ln(4)

	line("Items:")
	for _, item := range receipt.Items {
		line(fmt.Sprintf("%s - Quantity: %.2f kg - PHP %.2f each", item.Service, item.Quantity, item.PricePerUnit))
	}
	pdf.Ln(4)

	line(fmt.Sprintf("Subtotal: PHP %.2f", receipt.TotalAmount))
	line(fmt.Sprintf("Tax (10%%): PHP %.2f", receipt.Tax))
	if receipt.Discount > 0 {
		line(fmt.Sprintf("Discount: PHP %.2f", receipt.Discount))
	}
	pdf.SetFont("Helvetica", "B", 12)
	line(fmt.Sprintf("Total: PHP %.2f", receipt.FinalAmount))

	pdf.SetFont("Helvetica", "", 10)
	pdf.Ln(4)
	if receipt.PaymentMethod != "" {
		line("Payment method: " + receipt.PaymentMethod)
	}
	line("Payment status: " + receipt.PaymentStatus)

	return pdf.Output(w)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
