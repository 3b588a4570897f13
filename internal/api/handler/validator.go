package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New()
	// Report fields by their form name so messages match what the user typed into.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("form"), ","); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return errors.New(strings.Join(msgs, " "))
		}
		return err
	}
	return nil
}

// fieldError turns a failed rule into a sentence the sign-in dialog can show.
func fieldError(fe validator.FieldError) string {
	field := strings.ReplaceAll(strings.ToLower(fe.Field()), "_", " ")
	switch fe.Tag() {
	case "required":
		return "Please enter your " + field + "."
	case "email":
		return "Please enter a valid email address."
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s.", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return fmt.Sprintf("The %s must match the %s.", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("The %s is invalid.", field)
	}
}
