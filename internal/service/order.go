package service

import (
	"context"
	"fmt"
	"time"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/repository"
)

type OrderService interface {
	ListUserOrders(ctx context.Context, userID string) ([]dto.OrderView, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
	}
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string) ([]dto.OrderView, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	views := make([]dto.OrderView, len(orders))
	for i, order := range orders {
		views[i] = OrderToView(order)
	}

	return views, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
