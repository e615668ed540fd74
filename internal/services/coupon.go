package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/httpclient"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/storage"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/shopspring/decimal"
)

const couponLimiterSubject = "coupon_validation"

// AttemptLimiter throttles coupon validation attempts.
// *redis.AttemptLimiter implements it.
type AttemptLimiter interface {
	Allow(ctx context.Context, subject string) (allowed bool, remaining int, retryAfter int, err error)
}

// CouponService validates coupons against the store API and owns the
// applied coupon. The coupon and its discount always change together.
type CouponService interface {
	Load(ctx context.Context) error
	ListAvailable(ctx context.Context, subtotal decimal.Decimal) ([]models.CouponPreview, error)
	ValidateAndApply(ctx context.Context, code string, subtotal decimal.Decimal) (*models.AppliedCoupon, error)
	RemoveCoupon(ctx context.Context) error
	Applied() *models.AppliedCoupon
	Discount() decimal.Decimal
}

type couponService struct {
	productRepo repository.ProductRepository
	store       storage.Store
	limiter     AttemptLimiter
	logger      *slog.Logger
	now         func() time.Time

	persistMu sync.Mutex

	mu      sync.RWMutex
	applied *models.AppliedCoupon
}

// NewCouponService builds the service. limiter may be nil.
func NewCouponService(productRepo repository.ProductRepository, store storage.Store, limiter AttemptLimiter, logger *slog.Logger) CouponService {

	if logger == nil {
		logger = slog.Default()
	}

	return &couponService{
		productRepo: productRepo,
		store:       store,
		limiter:     limiter,
		logger:      logger.With(slog.String("component", "coupon")),
		now:         time.Now,
	}
}

// Load restores the applied coupon. A coupon without its discount, or the
// reverse, is discarded.
func (s *couponService) Load(ctx context.Context) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var coupon models.Coupon
	hasCoupon, err := s.store.Get(dbCtx, storage.AppliedCouponKey, &coupon)
	if err != nil {
		return errors.StorageError("Failed to load applied coupon").WithError(err)
	}

	var discount decimal.Decimal
	hasDiscount, err := s.store.Get(dbCtx, storage.CouponDiscountKey, &discount)
	if err != nil {
		return errors.StorageError("Failed to load coupon discount").WithError(err)
	}

	if hasCoupon != hasDiscount {
		s.logger.Warn("Discarding incomplete applied coupon",
			slog.Bool("has_coupon", hasCoupon),
			slog.Bool("has_discount", hasDiscount))

		s.mu.Lock()
		s.applied = nil
		s.mu.Unlock()

		if err := s.store.Delete(dbCtx, storage.CouponKeys...); err != nil {
			return errors.StorageError("Failed to clear applied coupon").WithError(err)
		}

		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !hasCoupon {
		s.applied = nil
		return nil
	}

	s.applied = &models.AppliedCoupon{Coupon: &coupon, Discount: discount}

	return nil
}

// ListAvailable returns the usable coupons with the discount each would
// give on subtotal.
func (s *couponService) ListAvailable(ctx context.Context, subtotal decimal.Decimal) ([]models.CouponPreview, error) {

	coupons, err := s.productRepo.ListCoupons(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	previews := make([]models.CouponPreview, 0, len(coupons))

	for i := range coupons {
		c := &coupons[i]
		if !c.IsUsable(now) {
			continue
		}

		previews = append(previews, models.CouponPreview{
			Coupon:          c,
			PreviewDiscount: c.DiscountFor(subtotal),
		})
	}

	return previews, nil
}

// ValidateAndApply asks the store API to validate code for subtotal and, on
// success, makes the result the applied coupon. On any failure the applied
// coupon is left as it was.
func (s *couponService) ValidateAndApply(ctx context.Context, code string, subtotal decimal.Decimal) (*models.AppliedCoupon, error) {

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, errors.ValidationError("Coupon code is required")
	}

	logger := s.logger.With(slog.String("code", code))

	if s.limiter != nil {
		allowed, _, retryAfter, err := s.limiter.Allow(ctx, couponLimiterSubject)
		if err != nil {
			return nil, errors.ThirdPartyError("Rate limit check failed").WithError(err)
		}

		if !allowed {
			metrics.CouponValidation(metrics.ResultLimited)
			logger.Warn("Coupon validation throttled", slog.Int("retry_after", retryAfter))
			return nil, errors.TooManyRequestsError("Too many coupon attempts. Please try again later.").
				WithDetail(retryAfterDetail(retryAfter))
		}
	}

	resp, err := s.productRepo.ValidateCoupon(ctx, &models.ValidateCouponRequest{Code: code, Amount: subtotal})
	if err != nil {
		if rejection, ok := asCouponRejection(err); ok {
			metrics.CouponValidation(metrics.ResultRejected)
			logger.Info("Coupon rejected", slog.String("reason", rejection.Message))
			return nil, rejection
		}

		metrics.CouponValidation(metrics.ResultFailure)
		return nil, err
	}

	if resp.Coupon == nil {
		metrics.CouponValidation(metrics.ResultRejected)
		message := httpclient.Sanitize(resp.Message)
		if message == "" {
			message = "This coupon is not valid"
		}
		return nil, errors.CouponInvalidError(message)
	}

	discount := resp.DiscountAmount
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	applied := &models.AppliedCoupon{
		Coupon:   resp.Coupon,
		Discount: discount,
		Message:  httpclient.Sanitize(resp.Message),
	}

	if err := s.swap(ctx, applied); err != nil {
		return nil, err
	}

	metrics.CouponValidation(metrics.ResultSuccess)
	logger.Info("Coupon applied", slog.String("discount", discount.StringFixed(2)))

	return applied, nil
}

// RemoveCoupon resets to no coupon and zero discount.
func (s *couponService) RemoveCoupon(ctx context.Context) error {
	return s.swap(ctx, nil)
}

func (s *couponService) Applied() *models.AppliedCoupon {

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.applied == nil {
		return nil
	}

	applied := *s.applied

	return &applied
}

// Discount is zero whenever no coupon is applied.
func (s *couponService) Discount() decimal.Decimal {

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.applied == nil {
		return decimal.Zero
	}

	return s.applied.Discount
}

// swap replaces the applied coupon in memory, then in storage. A nil
// applied clears both keys in one delete.
func (s *couponService) swap(ctx context.Context, applied *models.AppliedCoupon) error {

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.applied = applied
	s.mu.Unlock()

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if applied == nil {
		if err := s.store.Delete(dbCtx, storage.CouponKeys...); err != nil {
			return errors.StorageError("Failed to clear applied coupon").WithError(err)
		}
		return nil
	}

	if err := s.store.Set(dbCtx, storage.AppliedCouponKey, applied.Coupon); err != nil {
		return errors.StorageError("Failed to persist applied coupon").WithError(err)
	}

	if err := s.store.Set(dbCtx, storage.CouponDiscountKey, applied.Discount); err != nil {
		return errors.StorageError("Failed to persist coupon discount").WithError(err)
	}

	return nil
}

// asCouponRejection maps a validation refusal from the store API to
// COUPON_INVALID. Authorization, throttling and outage errors are not
// rejections and pass through.
func asCouponRejection(err error) (*errors.AppError, bool) {

	appErr, ok := errors.IsAppError(err)
	if !ok {
		return nil, false
	}

	switch appErr.Code {
	case errors.ErrCodeBadRequest, errors.ErrCodeNotFound, errors.ErrCodeValidation:
	default:
		return nil, false
	}

	if appErr.StatusCode < http.StatusBadRequest || appErr.StatusCode >= http.StatusInternalServerError {
		return nil, false
	}

	message := appErr.Message
	if message == "" {
		message = "This coupon is not valid"
	}

	return errors.CouponInvalidError(httpclient.Sanitize(message)).WithDetail(appErr.Detail).WithError(err), true
}

func retryAfterDetail(seconds int) string {
	return fmt.Sprintf("retry after %d seconds", seconds)
}
