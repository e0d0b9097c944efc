package form

import (
	"errors"
	"fmt"
)

// Sentinel kinds for decode failures.
var (
	ErrMissingBoundary = errors.New("missing multipart boundary")
	ErrFieldCount      = errors.New("expected exactly two form fields")
	ErrMalformedPart   = errors.New("malformed multipart part")
	ErrEmptyName       = errors.New("empty note name")
)

// DecodeError describes why a creation form could not be decoded. Kind is
// one of the sentinels above; Cause is the underlying reader error, if any.
type DecodeError struct {
	Kind  error
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Cause == nil {
		return "decode form: " + e.Kind.Error()
	}
	return fmt.Sprintf("decode form: %v: %v", e.Kind, e.Cause)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func decodeErr(kind, cause error) error {
	return &DecodeError{Kind: kind, Cause: cause}
}
