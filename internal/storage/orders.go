package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/karrelday/TaraLaba/internal/entities"
)

const orderColumns = `id, number, customer_id, customer_name, laundry_weight, amount_to_pay, service_type, status,
	paid, payment_method, payment_acc_number, payment_acc_name, paid_at, created_at, completed_at`

func (s *PostgresStorage) GetOrder(ctx context.Context, id string) (entities.Order, error) {
	var order entities.Order

	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1;", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order, ErrNoRows
		}

		return order, err
	}

	return order, nil
}

func (s *PostgresStorage) GetOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := "SELECT " + orderColumns + " FROM orders"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC;"

	orders := []entities.Order{}

	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, err
	}

	return orders, nil
}

func (s *PostgresStorage) CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error) {
	var created entities.Order

	err := s.db.GetContext(
		ctx,
		&created,
		`INSERT INTO orders (number, customer_id, customer_name, laundry_weight, amount_to_pay, service_type, status,
			payment_method, payment_acc_number, payment_acc_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING `+orderColumns+`;`,
		order.Number, order.CustomerID, order.CustomerName, order.LaundryWeight, order.AmountToPay, order.ServiceType,
		order.Status, order.PaymentMethod, order.PaymentAccNumber, order.PaymentAccName,
	)
	if err != nil {
		if isIntegrityViolation(err) {
			return created, ErrConflict
		}

		return created, err
	}

	return created, nil
}

// UpdateOrderStatus writes the status as given. Delivered stamps completed_at,
// any other status clears it.
func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, id string, status string) (entities.Order, error) {
	var order entities.Order

	err := s.db.GetContext(
		ctx,
		&order,
		`UPDATE orders SET status = $1,
			completed_at = CASE WHEN $1::varchar = $2::varchar THEN CURRENT_TIMESTAMP ELSE NULL END
		WHERE id = $3 RETURNING `+orderColumns+`;`,
		status, entities.OrderStatusDelivered, id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order, ErrNoRows
		}

		return order, err
	}

	return order, nil
}

func (s *PostgresStorage) UpdateOrderPayment(ctx context.Context, id string, payment entities.Payment) (entities.Order, error) {
	var order entities.Order

	err := s.db.GetContext(
		ctx,
		&order,
		`UPDATE orders SET paid = TRUE, paid_at = CURRENT_TIMESTAMP,
			payment_method = $1, payment_acc_number = $2, payment_acc_name = $3
		WHERE id = $4 RETURNING `+orderColumns+`;`,
		payment.Method, payment.AccNumber, payment.AccName, id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order, ErrNoRows
		}

		return order, err
	}

	return order, nil
}

func (s *PostgresStorage) DeleteOrder(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1;", id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}
