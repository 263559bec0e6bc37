package timegrid

import (
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

// RegisterValidations adds the tags used by Geometry to v, so a config
// struct that embeds a Geometry can be validated in one pass.
func RegisterValidations(v *validator.Validate) {
	_ = v.RegisterValidation("divides60", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n > 0 && 60%n == 0
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
}
