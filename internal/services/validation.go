package service

import (
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/go-playground/validator/v10"
)

// validationError turns validator output into a VALIDATION_ERROR listing
// every failing field.
func validationError(err error) *errors.AppError {

	var validationErrs validator.ValidationErrors
	if !stdErrors.As(err, &validationErrs) {
		return errors.ValidationError("Invalid input").WithError(err)
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		if fe.Param() != "" {
			fields = append(fields, fmt.Sprintf("%s (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}

	return errors.ValidationError("Validation failed").WithDetail(strings.Join(fields, ", ")).WithError(err)
}
