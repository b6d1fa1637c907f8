package middleware

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/posvenda/backend/internal/domain/serviceorder"
)

// RegisterValidations installs custom binding validators on gin's
// validator engine. Safe to call more than once.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("middleware: unexpected binding validator engine")
	}

	// "relation" accepts only tokens from the detail endpoint allow-list.
	return v.RegisterValidation("relation", func(fl validator.FieldLevel) bool {
		return serviceorder.ValidateRelations([]string{fl.Field().String()}) == nil
	})
}
