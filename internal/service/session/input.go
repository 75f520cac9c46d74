package session

import (
	"errors"
	"fmt"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// LoginInput holds parameters for the login operation.
type LoginInput struct {
	Username string
	Password string
}

// Validate validates the login input.
func (i LoginInput) Validate() error {
	return toValidationError(validation.Errors{
		"username": validation.Validate(strings.TrimSpace(i.Username), validation.Required),
		"password": validation.Validate(i.Password, validation.Required),
	}.Filter())
}

// RegisterInput holds parameters for the register operation.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	Phone           string

	// AvatarName and Avatar describe an optional profile picture.
	AvatarName string
	Avatar     io.Reader
}

// Validate validates the register input.
func (i RegisterInput) Validate() error {
	err := validation.Errors{
		"username":  validation.Validate(strings.TrimSpace(i.Username), validation.Required, validation.Length(1, 150)),
		"email":     validation.Validate(i.Email, is.Email),
		"password":  validation.Validate(i.Password, validation.Required),
		"password2": validation.Validate(i.PasswordConfirm, validation.Required),
	}.Filter()
	if err != nil {
		return toValidationError(err)
	}
	if i.Password != i.PasswordConfirm {
		return domain.NewValidationError("password", "Passwords don't match")
	}
	return nil
}

func (i RegisterInput) registration() domain.Registration {
	reg := domain.Registration{
		Username:        strings.TrimSpace(i.Username),
		Email:           strings.TrimSpace(i.Email),
		Password:        i.Password,
		PasswordConfirm: i.PasswordConfirm,
		FirstName:       i.FirstName,
		LastName:        i.LastName,
		Phone:           i.Phone,
	}
	if i.Avatar != nil {
		reg.Avatar = &domain.Avatar{Filename: i.AvatarName, Content: i.Avatar}
	}
	return reg
}

// validateProfileUpdate rejects empty updates and malformed emails.
func validateProfileUpdate(upd domain.ProfileUpdate) error {
	if upd.IsEmpty() {
		return domain.NewValidationError(domain.NonFieldKey, "nothing to update")
	}
	if upd.Email == nil {
		return nil
	}
	return toValidationError(validation.Errors{
		"email": validation.Validate(*upd.Email, validation.Required, is.Email),
	}.Filter())
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fields := make(map[string][]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = []string{ferr.Error()}
	}
	return domain.ValidationErrorFromMap(fields)
}
