package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/metrosite-backend/internal/utils"
)

// RegisterValidators adds the custom binding tags used by request DTOs:
//
//	phone  a phone number that normalizes to '+' and 9..15 digits
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, ok := utils.NormalizePhone(fl.Field().String())
		return ok
	})
}
