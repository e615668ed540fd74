package utils

import (
	stdErrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	if err := DecodeJSONBody(r, dest); err != nil {
		slog.Warn("Invalid request", slog.String("error", err.Error()))
		response.Error(w, errors.BadRequestError("Invalid request body").WithDetail(err.Error()))
		return false
	}

	if err := ValidateStruct(validate, dest); err != nil {
		var validationErrs validator.ValidationErrors
		if stdErrors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
			return false
		}

		response.Error(w, errors.ValidationError("Invalid input data"))
		return false
	}

	return true

}

// ParseID reads a path value as an upstream identifier.
func ParseID(r *http.Request, name string) (models.ID, error) {

	raw := strings.TrimSpace(r.PathValue(name))
	if raw == "" {
		return "", errors.BadRequestError("Missing " + name)
	}

	return models.ID(raw), nil
}

// QueryInt reads an integer query parameter, falling back to def when it is
// absent or malformed.
func QueryInt(r *http.Request, name string, def int) int {

	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}

	return value
}
