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

type AddressHandler struct {
	addressService service.AddressService
	validator      *validator.Validate
}

func NewAddressHandler(addressService service.AddressService) *AddressHandler {
	return &AddressHandler{addressService: addressService, validator: validator.New()}
}

// ListAddresses godoc
//	@Summary		List saved addresses
//	@Tags			Addresses
//	@Produce		json
//	@Success		200	{array}		models.Address
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Router			/addresses [get]
func (h *AddressHandler) ListAddresses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		addresses, err := h.addressService.ListAddresses(r.Context())
		if err != nil {
			logger.Error("Failed to list addresses", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, addresses)
	}
}

// CreateAddress godoc
//	@Summary		Save an address
//	@Tags			Addresses
//	@Accept			json
//	@Produce		json
//	@Param			address	body		models.Address			true	"Address"
//	@Success		201		{object}	models.Address
//	@Failure		400		{object}	response.ErrorResponse	"Invalid input"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Router			/addresses [post]
func (h *AddressHandler) CreateAddress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.Address
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid address input")
			return
		}

		address, err := h.addressService.CreateAddress(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create address", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Address created", slog.String("addressId", address.ID.String()))
		response.Success(w, http.StatusCreated, address)
	}
}
