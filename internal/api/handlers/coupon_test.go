package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront/internal/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestListCoupons(t *testing.T) {
	mockCoupons := new(mocks.CouponService)
	mockCart := new(mocks.CartService)
	couponHandler := handlers.NewCouponHandler(mockCoupons, mockCart)

	t.Run("Success - Previews for the cart subtotal", func(t *testing.T) {
		// Arrange
		subtotal := decimal.NewFromInt(100)
		previews := []models.CouponPreview{
			{Coupon: &models.Coupon{Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: decimal.NewFromInt(10), IsActive: true}, PreviewDiscount: decimal.NewFromInt(10)},
		}
		mockCart.On("TotalPrice").Return(subtotal).Once()
		mockCoupons.On("ListAvailable", mock.Anything, subtotal).Return(previews, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/coupons", nil, nil)
		rr := httptest.NewRecorder()

		// Act
		couponHandler.ListCoupons().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var got []models.CouponPreview
		decodeResponse(t, rr, &got)
		assert.Len(t, got, 1)
		assert.Equal(t, "SAVE10", got[0].Coupon.Code)
		mockCoupons.AssertExpectations(t)
		mockCart.AssertExpectations(t)
	})
}

func TestApplyCoupon(t *testing.T) {
	mockCoupons := new(mocks.CouponService)
	mockCart := new(mocks.CartService)
	couponHandler := handlers.NewCouponHandler(mockCoupons, mockCart)

	t.Run("Success - Coupon applied", func(t *testing.T) {
		// Arrange
		subtotal := decimal.NewFromInt(100)
		applied := &models.AppliedCoupon{Coupon: &models.Coupon{Code: "SAVE10"}, Discount: decimal.NewFromInt(10)}
		mockCart.On("TotalPrice").Return(subtotal).Once()
		mockCoupons.On("ValidateAndApply", mock.Anything, "save10", subtotal).Return(applied, nil).Once()

		bodyBytes, _ := json.Marshal(models.ApplyCouponRequest{Code: "save10"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/cart/coupon", bytes.NewReader(bodyBytes), nil)
		rr := httptest.NewRecorder()

		// Act
		couponHandler.ApplyCoupon().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.AppliedCoupon
		decodeResponse(t, rr, &got)
		assert.Equal(t, "SAVE10", got.Coupon.Code)
		assert.True(t, got.Discount.Equal(decimal.NewFromInt(10)))
		mockCoupons.AssertExpectations(t)
	})

	t.Run("Failure - Coupon rejected", func(t *testing.T) {
		// Arrange
		mockCart.On("TotalPrice").Return(decimal.NewFromInt(20)).Once()
		mockCoupons.On("ValidateAndApply", mock.Anything, "BIG50", mock.Anything).
			Return(nil, appErrors.CouponInvalidError("Minimum purchase amount is 50.00")).Once()

		bodyBytes, _ := json.Marshal(models.ApplyCouponRequest{Code: "BIG50"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/cart/coupon", bytes.NewReader(bodyBytes), nil)
		rr := httptest.NewRecorder()

		// Act
		couponHandler.ApplyCoupon().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		resp := decodeResponse(t, rr, nil)
		assert.Equal(t, appErrors.ErrCodeCouponInvalid, resp.Error.Code)
		assert.Equal(t, "Minimum purchase amount is 50.00", resp.Error.Message)
	})

	t.Run("Failure - Throttled sets Retry-After", func(t *testing.T) {
		// Arrange
		mockCart.On("TotalPrice").Return(decimal.NewFromInt(20)).Once()
		mockCoupons.On("ValidateAndApply", mock.Anything, "TRY", mock.Anything).
			Return(nil, appErrors.TooManyRequestsError("Too many coupon attempts. Please try again later.").WithDetail("retry after 42 seconds")).Once()

		bodyBytes, _ := json.Marshal(models.ApplyCouponRequest{Code: "TRY"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/cart/coupon", bytes.NewReader(bodyBytes), nil)
		rr := httptest.NewRecorder()

		// Act
		couponHandler.ApplyCoupon().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "42", rr.Header().Get("Retry-After"))
	})

	t.Run("Failure - Missing code", func(t *testing.T) {
		// Arrange
		bodyBytes, _ := json.Marshal(models.ApplyCouponRequest{})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/cart/coupon", bytes.NewReader(bodyBytes), nil)
		rr := httptest.NewRecorder()

		// Act
		couponHandler.ApplyCoupon().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRemoveCoupon(t *testing.T) {
	mockCoupons := new(mocks.CouponService)
	couponHandler := handlers.NewCouponHandler(mockCoupons, new(mocks.CartService))

	t.Run("Success - Coupon removed", func(t *testing.T) {
		// Arrange
		mockCoupons.On("RemoveCoupon", mock.Anything).Return(nil).Once()
		req := testutils.CreateTestRequestWithoutContext(http.MethodDelete, "/cart/coupon", nil, nil)
		rr := httptest.NewRecorder()

		// Act
		couponHandler.RemoveCoupon().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusNoContent, rr.Code)
		mockCoupons.AssertExpectations(t)
	})
}
