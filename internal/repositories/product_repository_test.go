package repository_test

import (
	"net/http"
	"testing"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - GetProduct with variants", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"id":10,"name":"Tee","price":"20.00","variants":[{"id":77,"size":"M","color":"Red","stock":3,"is_active":true}]}`)
		})
		repo := repository.NewProductRepo(newTestClient(t, mux))

		// Act
		product, err := repo.GetProduct(ctx, "10")

		// Assert
		require.NoError(t, err)
		variant, ok := product.FindVariant(" m ", "red")
		require.True(t, ok)
		assert.Equal(t, models.ID("77"), variant.ID)
	})

	t.Run("Failure - GetProduct not found", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, `{"detail":"Not found."}`)
		})
		repo := repository.NewProductRepo(newTestClient(t, mux))

		// Act
		product, err := repo.GetProduct(ctx, "404")

		// Assert
		require.Error(t, err)
		assert.Nil(t, product)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound))
	})

	t.Run("Success - ListCoupons", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /products/coupons", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"id":1,"code":"SAVE10","discount_type":"percentage","discount_value":"10","is_active":true}]`)
		})
		repo := repository.NewProductRepo(newTestClient(t, mux))

		// Act
		coupons, err := repo.ListCoupons(ctx)

		// Assert
		require.NoError(t, err)
		require.Len(t, coupons, 1)
		assert.Equal(t, "SAVE10", coupons[0].Code)
		assert.Equal(t, models.DiscountPercentage, coupons[0].DiscountType)
	})

	t.Run("Success - ValidateCoupon", func(t *testing.T) {
		// Arrange
		var body models.ValidateCouponRequest

		mux := http.NewServeMux()
		mux.HandleFunc("POST /products/coupons/validate", func(w http.ResponseWriter, r *http.Request) {
			decodeBody(t, r, &body)
			writeJSON(w, http.StatusOK, `{"coupon":{"code":"SAVE10","discount_type":"percentage","discount_value":"10"},"discount_amount":"5.00","message":"Coupon applied"}`)
		})
		repo := repository.NewProductRepo(newTestClient(t, mux))

		// Act
		resp, err := repo.ValidateCoupon(ctx, &models.ValidateCouponRequest{Code: "SAVE10", Amount: decimal.NewFromInt(50)})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", body.Code)
		assert.True(t, decimal.NewFromInt(50).Equal(body.Amount))
		require.NotNil(t, resp.Coupon)
		assert.True(t, decimal.RequireFromString("5").Equal(resp.DiscountAmount))
	})

	t.Run("Failure - ValidateCoupon rejected", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("POST /products/coupons/validate", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"error":"Minimum purchase amount is 100"}`)
		})
		repo := repository.NewProductRepo(newTestClient(t, mux))

		// Act
		resp, err := repo.ValidateCoupon(ctx, &models.ValidateCouponRequest{Code: "BIG", Amount: decimal.NewFromInt(10)})

		// Assert
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeBadRequest))
		assert.Equal(t, "Minimum purchase amount is 100", err.Error())
	})
}
