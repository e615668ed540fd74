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

type CartHandler struct {
	cartService   service.CartService
	couponService service.CouponService
	validator     *validator.Validate
}

func NewCartHandler(cartService service.CartService, couponService service.CouponService) *CartHandler {
	return &CartHandler{cartService: cartService, couponService: couponService, validator: validator.New()}
}

// GetCart godoc
//	@Summary		Get the cart
//	@Description	Returns the line items with the unit count and total price.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartResponse
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.cartService.Snapshot())
	}
}

// AddItem godoc
//	@Summary		Add an item to the cart
//	@Description	Adds a product at a size and color. The quantity is merged into an existing line for the same product, size and color.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Item to add"
//	@Success		201		{object}	models.LineItem			"The line holding the item"
//	@Failure		400		{object}	response.ErrorResponse	"Invalid input"
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add to cart input")
			return
		}

		logger = logger.With(slog.String("productId", req.ProductID.String()))

		line, err := h.cartService.Add(&req)
		if err != nil {
			logger.Warn("Failed to add item to cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart", slog.String("lineId", line.ID), slog.Int("quantity", line.Quantity))
		response.Success(w, http.StatusCreated, line)
	}
}

// UpdateQuantity godoc
//	@Summary		Change a line's quantity
//	@Description	Sets the quantity of a line. A quantity of zero or less removes the line; unknown lines are ignored.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string							true	"Line ID"
//	@Param			quantity	body		models.UpdateQuantityRequest	true	"New quantity"
//	@Success		200			{object}	models.CartResponse
//	@Failure		400			{object}	response.ErrorResponse	"Invalid input"
//	@Router			/cart/items/{id} [patch]
func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid quantity input")
			return
		}

		h.cartService.UpdateQuantity(id.String(), *req.Quantity)

		logger.Info("Cart quantity updated", slog.String("lineId", id.String()), slog.Int("quantity", *req.Quantity))
		response.Success(w, http.StatusOK, h.cartService.Snapshot())
	}
}

// RemoveItem godoc
//	@Summary		Remove a line from the cart
//	@Tags			Cart
//	@Produce		json
//	@Param			id	path		string	true	"Line ID"
//	@Success		200	{object}	models.CartResponse
//	@Router			/cart/items/{id} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		h.cartService.Remove(id.String())

		response.Success(w, http.StatusOK, h.cartService.Snapshot())
	}
}

// ClearCart godoc
//	@Summary		Empty the cart
//	@Description	Removes every line and the applied coupon.
//	@Tags			Cart
//	@Success		204
//	@Failure		500	{object}	response.ErrorResponse	"Storage failure"
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		if err := service.ClearWithCoupon(r.Context(), h.cartService, h.couponService); err != nil {
			logger.Error("Failed to clear cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared")
		response.NoContent(w)
	}
}
