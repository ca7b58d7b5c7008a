// Package validation checks catalog form input using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for catalog forms.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors under the name the HTML form uses.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// Catalog ISBNs are stored as 13 digits; check digits are not enforced
	// because the legacy catalog holds placeholders.
	_ = v.RegisterValidation("isbn13digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 13 {
			return false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(domainerrors.FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("Select at least %s.", e.Param())
		}
		return fmt.Sprintf("Ensure this value has at least %s characters.", e.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", e.Param())
	case "len":
		return fmt.Sprintf("Ensure this value has exactly %s characters.", e.Param())
	case "isbn13digits", "isbn13":
		return "Enter a 13 digit ISBN."
	case "uuid", "uuid4":
		return "Enter a valid UUID."
	case "oneof":
		return "Select one of: " + e.Param() + "."
	case "gtefield":
		return "Must not be earlier than " + e.Param() + "."
	case "gt":
		return "Select a value."
	case "datetime":
		return "Enter a valid date (YYYY-MM-DD)."
	default:
		return "Enter a valid value."
	}
}
