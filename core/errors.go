package core

import "github.com/pkg/errors"

// ErrOnboardingCompleted is returned when a profile is onboarded a second time.
var ErrOnboardingCompleted = errors.New("onboarding already completed")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldErrors builds a ValidationError out of a {field: message} map.
func NewFieldErrors(err error, fields map[string]string) error {
	flds := make([]FieldError, 0, len(fields))
	for fld, msg := range fields {
		flds = append(flds, FieldError{Field: fld, Error: msg})
	}
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors as a {field: message} map.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, fe := range err.Fields {
		m[fe.Field] = fe.Error
	}
	return m
}

// IsValidationError reports whether the cause of err is a *ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
