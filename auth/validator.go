package auth

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"council-lab/errors"
)

var validate = validator.New()

// RegisterRequest carries the credentials of a registration attempt.
// The length bounds follow the struct tags; character classes are
// checked separately because the tag language cannot express them.
type RegisterRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=12,max=72"`
}

// One rune from every class is required.
var passwordClasses = []func(rune) bool{
	unicode.IsUpper,
	unicode.IsLower,
	unicode.IsNumber,
	func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) },
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}

	for _, belongs := range passwordClasses {
		if !strings.ContainsFunc(req.Password, belongs) {
			return errors.ErrInvalidPassword
		}
	}
	return nil
}
