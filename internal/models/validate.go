package models

import (
	"fmt"
	"reflect"
	"strings"
	"teamchat/backend/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

// newValidator reports fields by their json names, so titles match the wire payload.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks v against its validate tags and turns the first violation
// into a Domain error with a client-readable title.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Domain("Invalid request payload")
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return apperr.Domain(fmt.Sprintf("%s is required", field))
	case "max":
		return apperr.Domain(fmt.Sprintf("%s exceeds the maximum of %s", field, fe.Param()))
	case "min":
		return apperr.Domain(fmt.Sprintf("%s needs at least %s entries", field, fe.Param()))
	case "uuid":
		return apperr.Domain(fmt.Sprintf("%s must be a UUID", field))
	default:
		return apperr.Domain(fmt.Sprintf("%s is invalid", field))
	}
}
