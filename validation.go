package authclient

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const minPasswordLength = 6

// RegistrationForm is the input collected by the registration page.
type RegistrationForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate checks the form with the same rules the login page enforces plus
// a required name and a matching confirmation.
func (f RegistrationForm) Validate() error {
	errs := validation.Errors{
		"name":     validation.Validate(f.Name, validation.Required.Error("Name is required")),
		"email":    validateEmail(f.Email),
		"password": validatePassword(f.Password),
	}
	if f.Password != f.ConfirmPassword {
		errs["confirmPassword"] = errors.New("Passwords do not match")
	}

	if errs.Filter() != nil {
		return invalidCredentials(errs)
	}
	return nil
}

// Payload returns the body sent to POST /auth/register.
func (f RegistrationForm) Payload() map[string]any {
	return map[string]any{
		"name":     f.Name,
		"email":    f.Email,
		"password": f.Password,
	}
}

// ValidateLogin checks login input before it is sent to the auth service.
func ValidateLogin(email, password string) error {
	errs := validation.Errors{
		"email":    validateEmail(email),
		"password": validatePassword(password),
	}
	if errs.Filter() != nil {
		return invalidCredentials(errs)
	}
	return nil
}

func validateEmail(email string) error {
	return validation.Validate(email,
		validation.Required.Error("Email is required"),
		is.Email.Error("Email address is invalid"),
	)
}

func validatePassword(password string) error {
	return validation.Validate(password,
		validation.Required.Error("Password is required"),
		validation.Length(minPasswordLength, 0).Error("Password must be at least 6 characters"),
	)
}
