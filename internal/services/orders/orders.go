// Package orders — история заказов покупателя и согласование заказов сотрудниками.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// Repository — хранилище заказов.
type Repository interface {
	ListOrdersByUser(ctx context.Context, userUID string) ([]models.Order, error)
	ListPendingOrders(ctx context.Context) ([]models.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ApproveOrder(ctx context.Context, orderID int64, approverUID string, at time.Time) (*models.Order, error)
}

// Service работает с заказами.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создаёт Service.
func New(log *slog.Logger, repo Repository) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// ListForUser возвращает заказы пользователя со строками, новые первыми.
func (s *Service) ListForUser(ctx context.Context, userUID string) ([]models.Order, error) {
	const op = "orders.ListForUser"
	list, err := s.repo.ListOrdersByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.withItems(ctx, list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ListPending возвращает оплаченные заказы, ждущие согласования.
func (s *Service) ListPending(ctx context.Context) ([]models.Order, error) {
	const op = "orders.ListPending"
	list, err := s.repo.ListPendingOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.withItems(ctx, list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Approve согласует оплаченный заказ от имени сотрудника. Повторный вызов ничего не меняет.
func (s *Service) Approve(ctx context.Context, orderID int64, approverUID string) (*models.Order, error) {
	const op = "orders.Approve"
	o, err := s.repo.ApproveOrder(ctx, orderID, approverUID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("order approved",
		slog.String("op", op),
		slog.Int64("order_id", o.ID),
		slog.String("approver_uid", approverUID))
	return o, nil
}

func (s *Service) withItems(ctx context.Context, list []models.Order) error {
	for i := range list {
		items, err := s.repo.ListOrderItems(ctx, list[i].ID)
		if err != nil {
			return err
		}
		list[i].Items = items
	}
	return nil
}
