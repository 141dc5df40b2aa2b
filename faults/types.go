package faults

import "errors"

type ErrorCategory string

const (
	ValidationError ErrorCategory = "ValidationError"
	NotFoundError   ErrorCategory = "NotFoundError"
	AuthError       ErrorCategory = "AuthError"
	TransportError  ErrorCategory = "TransportError"
	InternalError   ErrorCategory = "InternalError"

	// AddressArityError marks a template resolved with the wrong number of
	// parameters. It is a programming error, never a user condition.
	AddressArityError ErrorCategory = "AddressArityError"
	// DecodeTypeError marks a response subtree whose shape does not match
	// the entity being decoded.
	DecodeTypeError ErrorCategory = "DecodeTypeError"
	// RemoteOperationFailure marks an outcome other than "success". Session
	// mutations report it through an outcome value; it only surfaces as an
	// error from reads.
	RemoteOperationFailure ErrorCategory = "RemoteOperationFailure"
	// MetadataError marks an invalid binding table or registry misuse.
	MetadataError ErrorCategory = "MetadataError"
	// ConfigurationError marks an invalid or incomplete context configuration.
	ConfigurationError ErrorCategory = "ConfigurationError"
)

type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.Category == category
}

// CategoryOf returns the category of the first typed error in the chain, or
// an empty category when none is present.
func CategoryOf(err error) ErrorCategory {
	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return ""
	}
	return typedErr.Category
}
