package handler

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wires go-playground/validator into Echo's Validator hook
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator builds the validator used for request payloads
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator. Validation failures are reported as a
// single message naming each offending field.
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s is %s", snakeCase(fe.Field()), tagMessage(fe.Tag())))
	}
	return fmt.Errorf("%s", strings.Join(fields, "; "))
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "not a valid email address"
	case "oneof":
		return "not one of the allowed values"
	case "datetime":
		return "not a valid date (expected YYYY-MM-DD)"
	default:
		return "invalid"
	}
}

func snakeCase(field string) string {
	var b strings.Builder
	var prevLower bool
	for _, r := range field {
		if r >= 'A' && r <= 'Z' {
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			prevLower = false
		} else {
			b.WriteRune(r)
			prevLower = true
		}
	}
	return b.String()
}
