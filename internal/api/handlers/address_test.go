package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAddresses(t *testing.T) {
	mockAddresses := new(mocks.AddressService)
	addressHandler := handlers.NewAddressHandler(mockAddresses)
	user := &models.User{ID: "7"}

	address := models.Address{
		FullName:     "Jane Doe",
		Phone:        "+15555550100",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62701",
		Country:      "US",
	}

	t.Run("Success - List", func(t *testing.T) {
		// Arrange
		saved := address
		saved.ID = "12"
		mockAddresses.On("ListAddresses", mock.Anything).Return([]models.Address{saved}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/addresses", nil, user, nil)
		rr := httptest.NewRecorder()

		// Act
		addressHandler.ListAddresses().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var got []models.Address
		decodeResponse(t, rr, &got)
		assert.Len(t, got, 1)
		assert.Equal(t, models.ID("12"), got[0].ID)
		mockAddresses.AssertExpectations(t)
	})

	t.Run("Success - Create", func(t *testing.T) {
		// Arrange
		saved := address
		saved.ID = "13"
		mockAddresses.On("CreateAddress", mock.Anything, mock.AnythingOfType("*models.Address")).Return(&saved, nil).Once()

		bodyBytes, _ := json.Marshal(address)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/addresses", bytes.NewReader(bodyBytes), user, nil)
		rr := httptest.NewRecorder()

		// Act
		addressHandler.CreateAddress().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)
		mockAddresses.AssertExpectations(t)
	})

	t.Run("Failure - Missing fields", func(t *testing.T) {
		// Arrange
		mockAddresses := new(mocks.AddressService)
		addressHandler := handlers.NewAddressHandler(mockAddresses)
		bodyBytes, _ := json.Marshal(models.Address{FullName: "Jane Doe"})
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/addresses", bytes.NewReader(bodyBytes), user, nil)
		rr := httptest.NewRecorder()

		// Act
		addressHandler.CreateAddress().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockAddresses.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
	})
}
