package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CheckoutService composes the checkout totals and submits orders built
// from the cart and the applied coupon.
type CheckoutService interface {
	Totals(subtotal, discount decimal.Decimal, itemCount int) *models.CheckoutSummary
	Summary() *models.CheckoutSummary
	PlaceOrder(ctx context.Context, req *models.CheckoutRequest) (*models.Order, error)
}

type checkoutService struct {
	cart        CartService
	coupons     CouponService
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	validator   *validator.Validate
	logger      *slog.Logger

	freeShippingThreshold decimal.Decimal
	flatShippingFee       decimal.Decimal
	currency              string

	placing sync.Mutex
}

func NewCheckoutService(
	cart CartService,
	coupons CouponService,
	repos *repository.Repositories,
	pricing config.Pricing,
	logger *slog.Logger,
) CheckoutService {

	if logger == nil {
		logger = slog.Default()
	}

	return &checkoutService{
		cart:                  cart,
		coupons:               coupons,
		orderRepo:             repos.Order,
		productRepo:           repos.Product,
		userRepo:              repos.User,
		validator:             validator.New(),
		logger:                logger.With(slog.String("component", "checkout")),
		freeShippingThreshold: decimal.NewFromFloat(pricing.FreeShippingThreshold),
		flatShippingFee:       decimal.NewFromFloat(pricing.FlatShippingFee),
		currency:              pricing.Currency,
	}
}

// Totals prices a cart. Shipping is free from the threshold upwards and the
// total never goes below zero.
func (s *checkoutService) Totals(subtotal, discount decimal.Decimal, itemCount int) *models.CheckoutSummary {

	shipping := s.flatShippingFee
	if subtotal.GreaterThanOrEqual(s.freeShippingThreshold) {
		shipping = decimal.Zero
	}

	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	remaining := s.freeShippingThreshold.Sub(subtotal)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return &models.CheckoutSummary{
		ItemCount:             itemCount,
		Subtotal:              subtotal,
		Shipping:              shipping,
		Discount:              discount,
		Total:                 total,
		FreeShippingRemaining: remaining,
		Currency:              s.currency,
	}
}

// Summary prices the current cart with the applied coupon.
func (s *checkoutService) Summary() *models.CheckoutSummary {

	cart := s.cart.Snapshot()

	summary := s.Totals(cart.TotalPrice, s.coupons.Discount(), cart.ItemCount)

	if applied := s.coupons.Applied(); applied != nil && applied.Coupon != nil {
		summary.CouponCode = strings.TrimSpace(applied.Coupon.Code)
	}

	return summary
}

// PlaceOrder submits the cart as one order. The cart and coupon are cleared
// only once the order exists upstream.
func (s *checkoutService) PlaceOrder(ctx context.Context, req *models.CheckoutRequest) (*models.Order, error) {

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if !s.placing.TryLock() {
		return nil, errors.BadRequestError("An order is already being submitted")
	}
	defer s.placing.Unlock()

	items := s.cart.Items()
	if len(items) == 0 {
		metrics.OrderSubmitted(metrics.ResultRejected)
		return nil, errors.BadRequestError("Cannot create order with empty cart")
	}

	addressID := req.AddressID
	if req.Address != nil {
		created, err := s.userRepo.CreateAddress(ctx, req.Address)
		if err != nil {
			metrics.OrderSubmitted(metrics.ResultFailure)
			s.logger.Warn("Failed to create shipping address", slog.String("error", err.Error()))
			return nil, err
		}
		addressID = created.ID
	}

	payload := &models.CreateOrderRequest{
		AddressID: addressID,
		Items:     s.orderLines(ctx, items),
	}

	if applied := s.coupons.Applied(); applied != nil && applied.Coupon != nil {
		payload.CouponCode = strings.TrimSpace(applied.Coupon.Code)
	}

	order, err := s.orderRepo.CreateOrder(ctx, payload)
	if err != nil {
		metrics.OrderSubmitted(metrics.ResultFailure)
		s.logger.Warn("Order submission failed, cart kept", slog.String("error", err.Error()))
		return nil, err
	}

	metrics.OrderSubmitted(metrics.ResultSuccess)

	// the order exists upstream; a caller disconnect must not keep the cart
	cleanupCtx := context.WithoutCancel(ctx)

	if err := s.cart.Clear(cleanupCtx); err != nil {
		s.logger.Error("Failed to clear cart after order", slog.String("order_id", order.ID.String()), slog.String("error", err.Error()))
	}

	if err := s.coupons.RemoveCoupon(cleanupCtx); err != nil {
		s.logger.Error("Failed to clear coupon after order", slog.String("order_id", order.ID.String()), slog.String("error", err.Error()))
	}

	s.logger.Info("Order placed", slog.String("order_id", order.ID.String()), slog.Int("lines", len(payload.Items)))

	return order, nil
}

// orderLines resolves each line to a variant id. Products are fetched once
// each and concurrently. A line whose variant can't be resolved carries its
// raw size and color instead.
func (s *checkoutService) orderLines(ctx context.Context, items []models.LineItem) []models.OrderItemRequest {

	ids := make([]models.ID, 0, len(items))
	seen := make(map[models.ID]bool)
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		products = make(map[models.ID]*models.Product, len(ids))
	)

	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()

			product, err := s.productRepo.GetProduct(ctx, id)
			if err != nil {
				s.logger.Warn("Variant lookup failed, using size and color",
					slog.String("product_id", id.String()),
					slog.String("error", err.Error()))
				return
			}

			mu.Lock()
			products[id] = product
			mu.Unlock()
		}()
	}

	wg.Wait()

	lines := make([]models.OrderItemRequest, 0, len(items))

	for _, item := range items {
		line := models.OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}

		if product := products[item.ProductID]; product != nil {
			if variant, ok := product.FindVariant(item.Size, item.Color); ok {
				line.SKUID = variant.ID
				lines = append(lines, line)
				continue
			}
		}

		metrics.VariantFallback()
		line.Size = item.Size
		line.Color = item.Color
		lines = append(lines, line)
	}

	return lines
}
