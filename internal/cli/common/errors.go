package common

import (
	"errors"

	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/session"
)

// ErrMissingArgument marks validation errors for absent positional
// arguments; the root command prints usage for them.
var ErrMissingArgument = errors.New("missing argument")

type missingArgumentError struct{ error }

func (e missingArgumentError) Unwrap() error { return e.error }

func (missingArgumentError) Is(target error) bool { return target == ErrMissingArgument }

func ValidationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

// MissingArgument is a ValidationError that also matches ErrMissingArgument.
func MissingArgument(message string) error {
	return missingArgumentError{ValidationError(message, nil)}
}

// OutcomeError turns a dispatched mutation that the server rejected into
// its RemoteOperationFailure. The session has already notified about it.
func OutcomeError(result session.Result) error {
	if !result.Dispatched || result.Outcome.Success {
		return nil
	}
	return result.Outcome.Err()
}
