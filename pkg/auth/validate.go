package auth

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/tasks/pkg/model"
)

const (
	MinPasswordLength = 6
	MinNameLength     = 3
)

// SignUpForm is the data entered on the registration form.
type SignUpForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ValidateEmail requires an address with an @.
func ValidateEmail(email string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid e-mail address", model.ErrValidation)
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", model.ErrValidation, MinPasswordLength)
	}
	return nil
}

func ValidateName(name string) error {
	if len(strings.TrimSpace(name)) < MinNameLength {
		return fmt.Errorf("%w: name must have at least %d characters", model.ErrValidation, MinNameLength)
	}
	return nil
}

// ValidateSignIn checks the sign-in form.
func ValidateSignIn(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// Validate checks the whole registration form.
func (f SignUpForm) Validate() error {
	if err := ValidateSignIn(f.Email, f.Password); err != nil {
		return err
	}
	if err := ValidateName(f.Name); err != nil {
		return err
	}
	if f.Password != f.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", model.ErrValidation)
	}
	return nil
}
