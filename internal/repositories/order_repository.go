package repository

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront/internal/httpclient"
	"github.com/aaravmahajanofficial/storefront/internal/models"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id models.ID) (*models.Order, error)
	ListOrders(ctx context.Context, page, pageSize int) (*models.Page[models.Order], error)
}

type orderRepository struct {
	client Doer
}

func NewOrderRepository(client Doer) OrderRepository {
	return &orderRepository{client: client}
}

func (r *orderRepository) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {

	order := &models.Order{}

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodPost, Path: "/orders", Body: req, Result: order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetOrder(ctx context.Context, id models.ID) (*models.Order, error) {

	order := &models.Order{}

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: "/orders/" + id.String(), Result: order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrders supersedes an earlier listing still in flight.
func (r *orderRepository) ListOrders(ctx context.Context, page, pageSize int) (*models.Page[models.Order], error) {

	result := &models.Page[models.Order]{}

	err := r.client.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		Path:   "/orders",
		Query: map[string]string{
			"page":      strconv.Itoa(page),
			"page_size": strconv.Itoa(pageSize),
		},
		Result: result,
		Key:    "orders:list",
	})
	if err != nil {
		return nil, err
	}

	if result.Results == nil {
		result.Results = []models.Order{}
	}

	return result, nil
}
