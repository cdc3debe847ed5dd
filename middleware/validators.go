package middleware

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"pixeltrack/api/models"
	"pixeltrack/api/tracker"
)

// RegisterValidators adds the pixel binding tags to gin's validator:
//
//	pixel_event    a standard event name, or any 1-50 character name when
//	               the sibling Custom field is true
//	pixel_currency a recognised currency code
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("pixel_event", validatePixelEvent); err != nil {
		return err
	}
	return v.RegisterValidation("pixel_currency", validateCurrency)
}

func validatePixelEvent(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if isCustom(fl.Parent()) {
		name = strings.TrimSpace(name)
		return name != "" && utf8.RuneCountInString(name) <= tracker.MaxCustomEventNameLen
	}
	return models.EventName(name).IsValid()
}

func isCustom(parent reflect.Value) bool {
	for parent.Kind() == reflect.Ptr {
		if parent.IsNil() {
			return false
		}
		parent = parent.Elem()
	}
	if parent.Kind() != reflect.Struct {
		return false
	}
	f := parent.FieldByName("Custom")
	return f.IsValid() && f.Kind() == reflect.Bool && f.Bool()
}

func validateCurrency(fl validator.FieldLevel) bool {
	return models.Currency(fl.Field().String()).IsValid()
}
