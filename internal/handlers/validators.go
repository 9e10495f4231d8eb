package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
)

var registerOnce sync.Once

// registerValidators adds the "currency" rule to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("currency", validateCurrency)
		}
	})
}

func validateCurrency(fl validator.FieldLevel) bool {
	_, err := domain.ParseCurrency(fl.Field().String())
	return err == nil
}
