package analysis

import "errors"

var ErrNotConfigured = errors.New("analysis LLM is not configured")

// Error is returned when the external analysis call fails. Retryable tells
// the caller whether asking the same question again may succeed.
type Error struct {
	Reason    string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewRetryableError(err error) *Error {
	return &Error{Reason: err.Error(), Err: err, Retryable: true}
}

func NewFatalError(err error) *Error {
	return &Error{Reason: err.Error(), Err: err, Retryable: false}
}

// IsRetryable reports whether err carries an analysis failure that may
// succeed if the same question is asked again.
func IsRetryable(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Retryable
}
