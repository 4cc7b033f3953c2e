package handlers

import (
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Optional leading +, then digits with optional spaces, dashes or parentheses.
var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{6,20}$`)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request inputs to
// gin's validator engine.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("phone", validatePhone)
		}
	})
}

// validatePhone ignores surrounding whitespace; the service trims it.
func validatePhone(fl validator.FieldLevel) bool {
	phone := strings.TrimSpace(fl.Field().String())
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 8 && digits <= 15
}
