package handlers

import (
	"fmt"

	"tajeats-api/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the domain tags used in request bindings
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	rules := map[string]validator.Func{
		"orderstatus": func(fl validator.FieldLevel) bool {
			_, ok := models.ParseOrderStatus(fl.Field().String())
			return ok
		},
		"deliverytype": func(fl validator.FieldLevel) bool {
			return models.DeliveryType(fl.Field().String()).Valid()
		},
		"deliverymode": func(fl validator.FieldLevel) bool {
			return models.DeliveryMode(fl.Field().String()).Valid()
		},
		"role": func(fl validator.FieldLevel) bool {
			return models.UserRole(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}
