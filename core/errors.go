package core

import "github.com/pkg/errors"

// FieldError attaches a user-displayable message to one request field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports a semantic request failure that struct-tag
// validation cannot express (e.g. a new password equal to the old one).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an integrity failure the server cannot serve through, such
// as a broken middleware chain. The HTTP error handler turns it into a
// graceful stop.
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
