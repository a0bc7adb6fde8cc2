package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate checks the same `binding` tags gin checks at the request boundary,
// so services reject bad input even when called outside a handler.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// Validate checks s against its binding tags and returns a *ValidationError listing every violation.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if verr, ok := FromValidatorErrors(err); ok {
		return verr
	}
	return fmt.Errorf("validation failed: %w", err)
}

// FromValidatorErrors converts validator.ValidationErrors (from gin binding or Validate)
// into a *ValidationError.
func FromValidatorErrors(err error) (*ValidationError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		out.Fields = append(out.Fields, FieldError{Field: field, Message: fieldMessage(field, fe)})
	}
	return out, true
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// trimmed returns s without surrounding whitespace.
func trimmed(s string) string {
	return strings.TrimSpace(s)
}
