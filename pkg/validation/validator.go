// Package validation wraps go-playground/validator with the engine's custom
// types and translates failures into errorbank errors.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

// Validator validates request payloads. It satisfies echo.Validator.
type Validator struct {
	validator *validator.Validate
}

// New builds a validator that reports json field names and understands decimals.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	return &Validator{validator: v}
}

// Validate checks i against its validate tags.
func (v *Validator) Validate(i interface{}) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errorbank.InvalidInput("invalid payload", errorbank.WithCause(err))
	}

	fields := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	return errorbank.InvalidInput("payload failed validation", errorbank.WithDetail("fields", fields))
}
