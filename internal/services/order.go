package service

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type OrderService interface {
	GetOrder(ctx context.Context, id models.ID) (*models.Order, error)
	ListOrders(ctx context.Context, page, size int) (*models.Page[models.Order], error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) GetOrder(ctx context.Context, id models.ID) (*models.Order, error) {
	return s.orderRepo.GetOrder(ctx, id)
}

func (s *orderService) ListOrders(ctx context.Context, page, size int) (*models.Page[models.Order], error) {

	if page < 1 {
		page = 1
	}

	if size < 1 {
		size = defaultPageSize
	}

	if size > maxPageSize {
		size = maxPageSize
	}

	return s.orderRepo.ListOrders(ctx, page, size)
}
