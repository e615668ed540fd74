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

func TestCheckoutSummary(t *testing.T) {
	mockCheckout := new(mocks.CheckoutService)
	checkoutHandler := handlers.NewCheckoutHandler(mockCheckout)

	t.Run("Success - Totals", func(t *testing.T) {
		// Arrange
		summary := &models.CheckoutSummary{
			ItemCount: 2,
			Subtotal:  decimal.RequireFromString("40.00"),
			Shipping:  decimal.RequireFromString("5.99"),
			Discount:  decimal.Zero,
			Total:     decimal.RequireFromString("45.99"),
			Currency:  "USD",
		}
		mockCheckout.On("Summary").Return(summary).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/checkout/summary", nil, nil)
		rr := httptest.NewRecorder()

		// Act
		checkoutHandler.Summary().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.CheckoutSummary
		decodeResponse(t, rr, &got)
		assert.True(t, got.Total.Equal(decimal.RequireFromString("45.99")))
		assert.Equal(t, "USD", got.Currency)
		mockCheckout.AssertExpectations(t)
	})
}

func TestPlaceOrder(t *testing.T) {
	mockCheckout := new(mocks.CheckoutService)
	checkoutHandler := handlers.NewCheckoutHandler(mockCheckout)

	t.Run("Success - Order placed", func(t *testing.T) {
		// Arrange
		order := &models.Order{ID: "501", Status: models.OrderStatusPending, Total: decimal.RequireFromString("45.99")}
		mockCheckout.On("PlaceOrder", mock.Anything, &models.CheckoutRequest{AddressID: "12"}).Return(order, nil).Once()

		bodyBytes, _ := json.Marshal(models.CheckoutRequest{AddressID: "12"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/checkout/orders", bytes.NewReader(bodyBytes), nil)
		rr := httptest.NewRecorder()

		// Act
		checkoutHandler.PlaceOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)

		var got models.Order
		decodeResponse(t, rr, &got)
		assert.Equal(t, models.ID("501"), got.ID)
		mockCheckout.AssertExpectations(t)
	})

	t.Run("Failure - No address", func(t *testing.T) {
		// Arrange
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/checkout/orders", bytes.NewReader([]byte(`{}`)), nil)
		rr := httptest.NewRecorder()

		// Act
		checkoutHandler.PlaceOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeResponse(t, rr, nil)
		assert.Equal(t, appErrors.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("Failure - Store API down", func(t *testing.T) {
		// Arrange
		mockCheckout.On("PlaceOrder", mock.Anything, mock.Anything).
			Return(nil, appErrors.ThirdPartyError("The store service is unavailable, please try again")).Once()

		bodyBytes, _ := json.Marshal(models.CheckoutRequest{AddressID: "12"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/checkout/orders", bytes.NewReader(bodyBytes), nil)
		rr := httptest.NewRecorder()

		// Act
		checkoutHandler.PlaceOrder().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		mockCheckout.AssertExpectations(t)
	})
}
