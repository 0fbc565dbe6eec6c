package usecase

import (
	"errors"

	"medhistory/internal/data/repository"
	"medhistory/internal/otp"
	"medhistory/pkg/utils"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrOTPIncorrect        = otp.ErrIncorrect
	ErrOTPExpired          = otp.ErrExpired
	ErrOTPAttemptsExceeded = otp.ErrAttemptsExceeded
	ErrTokenInvalid        = errors.New("invalid link")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountInactive     = errors.New("account is deactivated")
	ErrResendTooSoon       = errors.New("wait")
)

// ValidationError carries field-level messages back to the client.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + utils.FormatValidationErrors(e.Fields)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// validate runs struct tag validation and wraps failures.
func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// asValidation turns a unique-constraint violation into a ValidationError.
func asValidation(err error) (*ValidationError, bool) {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		return newValidationError(dup.Field, "already registered"), true
	}
	return nil, false
}
