package templater

import (
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator"
)

var fieldKeyRe = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

const (
	maxFieldKeyLength     = 64
	maxDefaultValueLength = 500
)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	if err := v.RegisterValidation("fieldKey", fieldKeyValidator); err != nil {
		return nil
	}
	if err := v.RegisterValidation("defaultValue", defaultValueValidator); err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func fieldKeyValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) <= maxFieldKeyLength && fieldKeyRe.MatchString(value)
}

// Значение по умолчанию - одна строка без управляющих символов.
func defaultValueValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if utf8.RuneCountInString(value) > maxDefaultValueLength {
		return false
	}
	for _, r := range value {
		if r < ' ' || r == 0x7f {
			return false
		}
	}
	return true
}
