// utils/validation.go
package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

var (
	Frequencies    = []string{"daily", "weekly", "monthly", "yearly"}
	LessonStatuses = []string{"scheduled", "completed", "cancelled"}
	PaymentMethods = []string{"cash", "card", "transfer", "check", "other"}
)

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	return phoneRegex.MatchString(cleaned)
}

// RegisterValidators installs the custom binding tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return registerValidators(v)
}

func registerValidators(v *validator.Validate) error {
	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return registerTags(v, map[string]validator.Func{
		"frequency":      oneOfValidation(Frequencies),
		"lesson_status":  oneOfValidation(LessonStatuses),
		"payment_method": oneOfValidation(PaymentMethods),
		"phone": func(fl validator.FieldLevel) bool {
			return ValidatePhone(fl.Field().String())
		},
	})
}

func registerTags(v *validator.Validate, tags map[string]validator.Func) error {
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return errors.Wrapf(err, "register %q validator", tag)
		}
	}
	return nil
}

func oneOfValidation(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}
