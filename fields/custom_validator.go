package fields

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once
var validate *validator.Validate

// Validator returns the shared validator instance, configured on the binding
// tag so gin and direct struct validation agree.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")

		err := validate.RegisterValidation("micros", micros)
		if err != nil {
			log.Fatalf("Unexpected err %v", err)
		}

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

			if name == "-" {
				return ""
			}

			return name
		})
	})
	return validate
}

// micros accepts any positive integer number of microseconds.
func micros(fl validator.FieldLevel) bool {
	return fl.Field().Int() > 0
}

// ValidateStruct validates obj when it is a struct, otherwise it is a no-op.
func ValidateStruct(obj interface{}) error {
	if kindOfData(obj) == reflect.Struct {
		if err := Validator().Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

// DefaultValidator adapts Validator to gin's binding.StructValidator so the
// binding tag, the micros rule and the json field names all flow through
// request binding.
type DefaultValidator struct{}

func (v *DefaultValidator) ValidateStruct(obj interface{}) error {
	return ValidateStruct(obj)
}

func (v *DefaultValidator) Engine() interface{} {
	return Validator()
}

func kindOfData(data interface{}) reflect.Kind {

	value := reflect.ValueOf(data)
	valueType := value.Kind()

	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}
