package authcore

import (
	"net/mail"
	"unicode"

	"github.com/kvels/authcore/password"
)

const minPasswordLength = 8

// DefaultValidator checks that the email parses as an address and that the
// password is at least eight characters with an upper-case letter, a
// lower-case letter, and a digit. Deployments with their own policy replace
// it via [Builder.WithValidator].
func DefaultValidator() Validator {
	return ValidatorFunc(defaultValidateSignup)
}

func defaultValidateSignup(form *SignupForm) error {
	if form == nil {
		return &ValidationError{Field: "form", Reason: "missing"}
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		return &ValidationError{Field: "email", Reason: "not a valid address"}
	}
	return checkPasswordStrength(form.Password)
}

func checkPasswordStrength(pw string) error {
	if len(pw) < minPasswordLength {
		return &ValidationError{Field: "password", Reason: "shorter than 8 characters"}
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	switch {
	case !hasUpper:
		return &ValidationError{Field: "password", Reason: "needs an upper-case letter"}
	case !hasLower:
		return &ValidationError{Field: "password", Reason: "needs a lower-case letter"}
	case !hasDigit:
		return &ValidationError{Field: "password", Reason: "needs a digit"}
	}
	return nil
}

func validatePasswordConfig(cfg PasswordConfig) error {
	return password.ValidateConfig(password.Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
}
