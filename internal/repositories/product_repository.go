package repository

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/httpclient"
	"github.com/aaravmahajanofficial/storefront/internal/models"
)

type ProductRepository interface {
	GetProduct(ctx context.Context, id models.ID) (*models.Product, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	ValidateCoupon(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, error)
}

type productRepository struct {
	client Doer
}

func NewProductRepo(client Doer) ProductRepository {
	return &productRepository{client: client}
}

// GetProduct returns the product detail including its variants.
func (r *productRepository) GetProduct(ctx context.Context, id models.ID) (*models.Product, error) {

	product := &models.Product{}

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: "/products/" + id.String(), Result: product}); err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepository) ListCoupons(ctx context.Context) ([]models.Coupon, error) {

	var raw json.RawMessage

	err := r.client.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		Path:   "/products/coupons",
		Result: &raw,
		Key:    "coupons:list",
	})
	if err != nil {
		return nil, err
	}

	return decodeList[models.Coupon](raw)
}

func (r *productRepository) ValidateCoupon(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, error) {

	resp := &models.ValidateCouponResponse{}

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodPost, Path: "/products/coupons/validate", Body: req, Result: resp}); err != nil {
		return nil, err
	}

	return resp, nil
}
