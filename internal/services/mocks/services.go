// Package mocks holds testify mocks of the service interfaces.
package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type CartService struct {
	mock.Mock
}

func (m *CartService) Load(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CartService) Add(req *models.AddItemRequest) (*models.LineItem, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LineItem), args.Error(1)
}

func (m *CartService) Remove(id string) {
	m.Called(id)
}

func (m *CartService) UpdateQuantity(id string, quantity int) {
	m.Called(id, quantity)
}

func (m *CartService) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CartService) Items() []models.LineItem {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.LineItem)
}

func (m *CartService) TotalPrice() decimal.Decimal {
	args := m.Called()
	return args.Get(0).(decimal.Decimal)
}

func (m *CartService) ItemCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *CartService) Snapshot() *models.CartResponse {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.CartResponse)
}

func (m *CartService) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CartService) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type CouponService struct {
	mock.Mock
}

func (m *CouponService) Load(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CouponService) ListAvailable(ctx context.Context, subtotal decimal.Decimal) ([]models.CouponPreview, error) {
	args := m.Called(ctx, subtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CouponPreview), args.Error(1)
}

func (m *CouponService) ValidateAndApply(ctx context.Context, code string, subtotal decimal.Decimal) (*models.AppliedCoupon, error) {
	args := m.Called(ctx, code, subtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppliedCoupon), args.Error(1)
}

func (m *CouponService) RemoveCoupon(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *CouponService) Applied() *models.AppliedCoupon {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.AppliedCoupon)
}

func (m *CouponService) Discount() decimal.Decimal {
	args := m.Called()
	return args.Get(0).(decimal.Decimal)
}

type CheckoutService struct {
	mock.Mock
}

func (m *CheckoutService) Totals(subtotal, discount decimal.Decimal, itemCount int) *models.CheckoutSummary {
	args := m.Called(subtotal, discount, itemCount)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.CheckoutSummary)
}

func (m *CheckoutService) Summary() *models.CheckoutSummary {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.CheckoutSummary)
}

func (m *CheckoutService) PlaceOrder(ctx context.Context, req *models.CheckoutRequest) (*models.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type OrderService struct {
	mock.Mock
}

func (m *OrderService) GetOrder(ctx context.Context, id models.ID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *OrderService) ListOrders(ctx context.Context, page, size int) (*models.Page[models.Order], error) {
	args := m.Called(ctx, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Order]), args.Error(1)
}

type AddressService struct {
	mock.Mock
}

func (m *AddressService) ListAddresses(ctx context.Context) ([]models.Address, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Address), args.Error(1)
}

func (m *AddressService) CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

type AuthService struct {
	mock.Mock
}

func (m *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *AuthService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *AuthService) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AuthService) Profile(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
