package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrInvalid = errors.New("validation failed")

var validate = validator.New()

// Validate checks struct tags and the invariants tags cannot express.
// Failures wrap ErrInvalid.
func Validate(v any) error {
	if p, ok := v.(*Product); ok && p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalid)
	}

	if err := validate.Struct(v); err != nil {
		var validationErr validator.ValidationErrors
		if errors.As(err, &validationErr) {
			first := validationErr[0]
			switch first.Field() {
			case "Name":
				if first.Tag() == "required" {
					return fmt.Errorf("%w: name is required", ErrInvalid)
				}
				return fmt.Errorf("%w: name must be at most %s characters", ErrInvalid, first.Param())
			case "Phone":
				return fmt.Errorf("%w: phone must be at most %s characters", ErrInvalid, first.Param())
			case "Stock":
				return fmt.Errorf("%w: stock cannot be negative", ErrInvalid)
			case "Quantity":
				return fmt.Errorf("%w: quantity must be positive", ErrInvalid)
			}
			return fmt.Errorf("%w: %s failed on %q", ErrInvalid, first.Field(), first.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return nil
}
