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

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, validator: validator.New()}
}

// Summary godoc
//	@Summary		Checkout totals
//	@Description	Subtotal, shipping, discount and total computed from the current cart and applied coupon.
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	models.CheckoutSummary
//	@Router			/checkout/summary [get]
func (h *CheckoutHandler) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.checkoutService.Summary())
	}
}

// PlaceOrder godoc
//	@Summary		Place an order
//	@Description	Submits the cart as an order to an existing address, or to a new address created first. The cart and coupon are cleared only after the order is accepted.
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			checkout	body		models.CheckoutRequest	true	"Shipping address"
//	@Success		201			{object}	models.Order			"Order placed"
//	@Failure		400			{object}	response.ErrorResponse	"Empty cart, invalid address or an order already in flight"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		502			{object}	response.ErrorResponse	"Store API unavailable"
//	@Router			/checkout/orders [post]
func (h *CheckoutHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CheckoutRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid checkout input")
			return
		}

		order, err := h.checkoutService.PlaceOrder(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to place order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order placed", slog.String("orderId", order.ID.String()))
		response.Success(w, http.StatusCreated, order)
	}
}
