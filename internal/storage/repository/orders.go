package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

const selectOrder = `SELECT id, user_uid, stripe_session_id, total_minor_units, currency,
       paid, approved, approved_by, approved_at, created_at
  FROM orders`

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o          models.Order
		approvedBy sql.NullString
		approvedAt sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.UserUID, &o.StripeSessionID, &o.TotalMinorUnits, &o.Currency,
		&o.Paid, &o.Approved, &approvedBy, &approvedAt, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.ApprovedBy = stringPtr(approvedBy)
	o.ApprovedAt = timePtr(approvedAt)
	return &o, nil
}

// GetOrCreateOrder возвращает заказ по идентификатору сессии оплаты, создавая его
// вместе со строками, если заказа ещё нет. Второй результат — был ли заказ создан
// этим вызовом. Гонка двух вызовов разрешается уникальным ключом: проигравший
// получает уже существующий заказ.
func (s *Storage) GetOrCreateOrder(ctx context.Context, o models.NewOrder) (*models.Order, bool, error) {
	const op = "storage.GetOrCreateOrder"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	order, err := scanOrder(tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_uid, stripe_session_id, total_minor_units, currency, paid)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (stripe_session_id) DO NOTHING
		 RETURNING id, user_uid, stripe_session_id, total_minor_units, currency,
		           paid, approved, approved_by, approved_at, created_at`,
		o.UserUID, o.StripeSessionID, o.TotalMinorUnits, o.Currency, o.Paid))
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := scanOrder(tx.QueryRowContext(ctx, selectOrder+` WHERE stripe_session_id = $1`, o.StripeSessionID))
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		if err = tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	for _, item := range o.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		var itemID int64
		if err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_minor_units)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			order.ID, item.ProductID, qty, item.PriceMinorUnits).Scan(&itemID); err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		item.ID = itemID
		item.OrderID = order.ID
		item.Quantity = qty
		order.Items = append(order.Items, item)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return order, true, nil
}

// GetOrderBySession возвращает заказ по идентификатору сессии оплаты.
func (s *Storage) GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	const op = "storage.GetOrderBySession"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	o, err := scanOrder(s.DB.QueryRowContext(ctx, selectOrder+` WHERE stripe_session_id = $1`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// ListOrdersByUser возвращает заказы пользователя, новые первыми.
func (s *Storage) ListOrdersByUser(ctx context.Context, userUID string) ([]models.Order, error) {
	const op = "storage.ListOrdersByUser"
	return s.listOrders(ctx, op, selectOrder+` WHERE user_uid = $1 ORDER BY created_at DESC, id DESC`, userUID)
}

// ListPendingOrders возвращает оплаченные, но не согласованные заказы, старые первыми.
func (s *Storage) ListPendingOrders(ctx context.Context) ([]models.Order, error) {
	const op = "storage.ListPendingOrders"
	return s.listOrders(ctx, op, selectOrder+` WHERE paid AND NOT approved ORDER BY created_at, id`)
}

func (s *Storage) listOrders(ctx context.Context, op, query string, args ...any) ([]models.Order, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListOrderItems возвращает строки заказа с названиями товаров.
func (s *Storage) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	const op = "storage.ListOrderItems"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price_minor_units
		   FROM order_items oi
		   JOIN products p ON p.id = oi.product_id
		  WHERE oi.order_id = $1
		  ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err = rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.PriceMinorUnits); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ApproveOrder отмечает оплаченный заказ согласованным. Повторное согласование
// возвращает заказ без изменений; неоплаченный заказ даёт apperr.ErrConflict.
func (s *Storage) ApproveOrder(ctx context.Context, orderID int64, approverUID string, at time.Time) (*models.Order, error) {
	const op = "storage.ApproveOrder"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	o, err := scanOrder(s.DB.QueryRowContext(ctx,
		`UPDATE orders SET approved = true, approved_by = $2, approved_at = $3
		  WHERE id = $1 AND paid AND NOT approved
		 RETURNING id, user_uid, stripe_session_id, total_minor_units, currency,
		           paid, approved, approved_by, approved_at, created_at`,
		orderID, approverUID, at))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o, err = scanOrder(s.DB.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !o.Paid {
		return nil, fmt.Errorf("%s: order %d is not paid: %w", op, orderID, apperr.ErrConflict)
	}
	return o, nil
}
