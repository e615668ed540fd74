package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CouponHandler struct {
	couponService service.CouponService
	cartService   service.CartService
	validator     *validator.Validate
}

func NewCouponHandler(couponService service.CouponService, cartService service.CartService) *CouponHandler {
	return &CouponHandler{couponService: couponService, cartService: cartService, validator: validator.New()}
}

// ListCoupons godoc
//	@Summary		List usable coupons
//	@Description	Lists the coupons that are active, in their validity window and below their usage limit, each with the discount it would give on the current cart.
//	@Tags			Coupons
//	@Produce		json
//	@Success		200	{array}		models.CouponPreview
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		502	{object}	response.ErrorResponse	"Store API unavailable"
//	@Router			/coupons [get]
func (h *CouponHandler) ListCoupons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		previews, err := h.couponService.ListAvailable(r.Context(), h.cartService.TotalPrice())
		if err != nil {
			logger.Error("Failed to list coupons", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Coupons listed", slog.Int("count", len(previews)))
		response.Success(w, http.StatusOK, previews)
	}
}

// ApplyCoupon godoc
//	@Summary		Apply a coupon to the cart
//	@Description	Validates the code against the current cart subtotal with the store API. On rejection the previously applied coupon stays.
//	@Tags			Coupons
//	@Accept			json
//	@Produce		json
//	@Param			coupon	body		models.ApplyCouponRequest	true	"Coupon code"
//	@Success		200		{object}	models.AppliedCoupon
//	@Failure		400		{object}	response.ErrorResponse	"Invalid input"
//	@Failure		422		{object}	response.ErrorResponse	"Coupon rejected"
//	@Failure		429		{object}	response.ErrorResponse	"Too many attempts"
//	@Router			/cart/coupon [post]
func (h *CouponHandler) ApplyCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.ApplyCouponRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid coupon input")
			return
		}

		applied, err := h.couponService.ValidateAndApply(r.Context(), req.Code, h.cartService.TotalPrice())
		if err != nil {
			logger.Warn("Coupon not applied", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Coupon applied", slog.String("code", applied.Coupon.Code))
		response.Success(w, http.StatusOK, applied)
	}
}

// RemoveCoupon godoc
//	@Summary		Remove the applied coupon
//	@Tags			Coupons
//	@Success		204
//	@Failure		500	{object}	response.ErrorResponse	"Storage failure"
//	@Router			/cart/coupon [delete]
func (h *CouponHandler) RemoveCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		if err := h.couponService.RemoveCoupon(r.Context()); err != nil {
			logger.Error("Failed to remove coupon", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.NoContent(w)
	}
}
